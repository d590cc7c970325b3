// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package log wraps logrus for the task pool's structured logging,
// adapted from the teacher's own logrus wrapper
// (internal/logger/logrus.go in the syslog consumer this pack also
// retrieved). This module drops that wrapper's ports.Logger indirection
// since there is no second logging backend to swap in here, and keeps
// only what the pool, registry, and demo command actually need.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger at the given level ("trace".."panic",
// defaulting to "info" for anything else) and format ("json" or
// "text").
func New(level, format string) *logrus.Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	logger.SetOutput(os.Stdout)
	return logger
}

// ForPool returns an entry pre-tagged with the owning pool's name, so
// every worker/task log line in that pool carries it without repeating
// the field at each call site.
func ForPool(logger *logrus.Logger, pool string) *logrus.Entry {
	return logger.WithField("pool", pool)
}

// ForWorker further tags a pool entry with the worker index.
func ForWorker(entry *logrus.Entry, worker int) *logrus.Entry {
	return entry.WithField("worker", worker)
}
