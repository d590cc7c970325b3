// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config holds the small set of knobs the demo command
// exposes, adapted from the teacher pack's config/defaults split
// (internal/config in the syslog consumer). Core pool sizing and CPU
// affinity are deliberately NOT configurable here: per spec.md §6,
// those are wiring decisions the registry makes from hardware
// concurrency, not deployment-time settings.
package config

import "time"

// App holds the demo command's own configuration.
type App struct {
	LogLevel        string
	LogFormat       string
	DemoTaskCount   int
	DemoWaitTimeout time.Duration
}

// Defaults returns an App populated with sane defaults.
func Defaults() *App {
	return &App{
		LogLevel:        "info",
		LogFormat:       "text",
		DemoTaskCount:   64,
		DemoWaitTimeout: 10 * time.Second,
	}
}
