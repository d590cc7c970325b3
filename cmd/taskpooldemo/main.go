// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command taskpooldemo starts the General/IO/LowPriority pool registry,
// submits a batch of demo work across all three, and shuts down on
// SIGINT/SIGTERM, following the boot/signal/shutdown shape of
// ibs-source-syslog-consumer's cmd/consumer/main.go.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"code.hybscloud.com/taskpool/internal/config"
	"code.hybscloud.com/taskpool/internal/log"
	"code.hybscloud.com/taskpool/registry"
	"code.hybscloud.com/taskpool/task"
	"code.hybscloud.com/taskpool/threadctx"
)

func main() {
	os.Exit(run())
}

func run() int {
	threadctx.MarkMainThread()

	cfg := config.Defaults()

	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "logrus level (trace..panic)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log output format (text or json)")
	flag.IntVar(&cfg.DemoTaskCount, "tasks", cfg.DemoTaskCount, "number of demo tasks per pool")
	flag.DurationVar(&cfg.DemoWaitTimeout, "wait-timeout", cfg.DemoWaitTimeout, "max time to wait for demo batches")
	flag.Parse()

	logger := log.New(cfg.LogLevel, cfg.LogFormat)

	registry.StartAllPools(logger)
	logger.Info("task pool registry started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := runDemoWorkload(cfg); err != nil {
			logger.WithError(err).Error("demo workload failed")
		} else {
			logger.Info("demo workload completed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("received shutdown signal")
	case <-done:
		logger.Info("waiting for shutdown signal (Ctrl-C to exit)")
		<-sigChan
	}

	registry.ShutdownAllPools()
	logger.Info("task pool registry shut down")
	return 0
}

// runDemoWorkload submits cfg.DemoTaskCount counting tasks to each of
// the three named pools and waits for every batch to finish, exercising
// Submit and Wait across General, IO, and LowPriority.
func runDemoWorkload(cfg *config.App) error {
	var generalDone, ioDone, lowDone int64

	generalCounter, err := registry.SubmitGeneral(nil, makeCountingTasks(cfg.DemoTaskCount, &generalDone), task.Normal)
	if err != nil {
		return fmt.Errorf("submit general batch: %w", err)
	}
	ioCounter, err := registry.SubmitIO(nil, makeCountingTasks(cfg.DemoTaskCount, &ioDone), task.Normal)
	if err != nil {
		return fmt.Errorf("submit io batch: %w", err)
	}
	lowCounter, err := registry.SubmitLowPriority(nil, makeCountingTasks(cfg.DemoTaskCount, &lowDone), task.Low)
	if err != nil {
		return fmt.Errorf("submit low-priority batch: %w", err)
	}

	waitAll := make(chan struct{})
	go func() {
		defer close(waitAll)
		registry.WaitGeneral(nil, generalCounter)
		registry.WaitIO(nil, ioCounter)
		registry.WaitLowPriority(nil, lowCounter)
	}()

	select {
	case <-waitAll:
	case <-time.After(cfg.DemoWaitTimeout):
		return fmt.Errorf("demo workload timed out after %s", cfg.DemoWaitTimeout)
	}

	if atomic.LoadInt64(&generalDone) != int64(cfg.DemoTaskCount) ||
		atomic.LoadInt64(&ioDone) != int64(cfg.DemoTaskCount) ||
		atomic.LoadInt64(&lowDone) != int64(cfg.DemoTaskCount) {
		return fmt.Errorf("demo workload: not all tasks observed complete")
	}
	return nil
}

func makeCountingTasks(n int, counter *int64) []task.Task {
	tasks := make([]task.Task, n)
	for i := range tasks {
		tasks[i] = func(*task.Context) {
			atomic.AddInt64(counter, 1)
		}
	}
	return tasks
}
