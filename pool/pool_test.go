// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"code.hybscloud.com/taskpool/internal/log"
	"code.hybscloud.com/taskpool/pool"
	"code.hybscloud.com/taskpool/task"
	"code.hybscloud.com/taskpool/threadctx"
)

func newTestPool(t *testing.T, workers int) *pool.Pool {
	t.Helper()
	logger := log.New("error", "text")
	p := pool.New("test", workers, threadctx.PriorityNormal, threadctx.AffinitySpec{}, logger)
	p.Start()
	t.Cleanup(p.Shutdown)
	return p
}

func TestSubmitAndWaitRunsAllTasks(t *testing.T) {
	p := newTestPool(t, 4)

	const n = 200
	var completed int64
	tasks := make([]task.Task, n)
	for i := range tasks {
		tasks[i] = func(*task.Context) {
			atomic.AddInt64(&completed, 1)
		}
	}
	if err := p.SubmitAndWait(nil, tasks, task.Normal); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&completed); got != n {
		t.Fatalf("completed %d tasks, want %d", got, n)
	}
}

// TestFIFOWithinPriority is the seed test S1: FIFO within priority.
// On a single worker, tasks at the same level complete in submission
// order (cross-worker ordering is explicitly not guaranteed by spec).
func TestFIFOWithinPriority(t *testing.T) {
	p := newTestPool(t, 1)

	const n = 1000
	var mu sync.Mutex
	var log []int
	tasks := make([]task.Task, n)
	for i := range tasks {
		i := i
		tasks[i] = func(*task.Context) {
			mu.Lock()
			log = append(log, i)
			mu.Unlock()
		}
	}
	if err := p.SubmitAndWait(nil, tasks, task.Normal); err != nil {
		t.Fatal(err)
	}
	if len(log) != n {
		t.Fatalf("got %d entries, want %d", len(log), n)
	}
	for i, v := range log {
		if v != i {
			t.Fatalf("FIFO violated at position %d: got %d, want %d", i, v, i)
		}
	}
}

// TestStrictPriorityOrdering is the seed test S2: strict priority. On
// a single worker, a High task submitted after a batch of slow Low
// tasks completes before the remaining Low tasks do.
func TestStrictPriorityOrdering(t *testing.T) {
	p := newTestPool(t, 1)

	const lowCount = 50
	var lowStarted int64
	lowTasks := make([]task.Task, lowCount)
	for i := range lowTasks {
		lowTasks[i] = func(*task.Context) {
			atomic.AddInt64(&lowStarted, 1)
			time.Sleep(2 * time.Millisecond)
		}
	}
	for _, lt := range lowTasks {
		if _, err := p.Submit(nil, []task.Task{lt}, task.Low); err != nil {
			t.Fatal(err)
		}
	}

	highDone := make(chan int64)
	if _, err := p.Submit(nil, []task.Task{func(*task.Context) {
		highDone <- atomic.LoadInt64(&lowStarted)
	}}, task.Highest); err != nil {
		t.Fatal(err)
	}

	select {
	case startedWhenHighRan := <-highDone:
		if startedWhenHighRan >= lowCount {
			t.Fatalf("High task ran only after all %d Low tasks had started (started=%d)", lowCount, startedWhenHighRan)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("High task never ran")
	}
}

// TestCooperativeWaitDoesNotBlockWorker is the seed test S3: a task
// that waits on sub-tasks lets its worker run other equal-priority
// work in the meantime instead of blocking the OS thread.
func TestCooperativeWaitDoesNotBlockWorker(t *testing.T) {
	p := newTestPool(t, 1)

	t2Started := make(chan struct{})
	t1Done := make(chan struct{})

	if _, err := p.Submit(nil, []task.Task{func(ctx *task.Context) {
		sub := make([]task.Task, 10)
		for i := range sub {
			sub[i] = func(*task.Context) { time.Sleep(5 * time.Millisecond) }
		}
		if err := p.SubmitAndWait(ctx, sub, task.Normal); err != nil {
			t.Error(err)
		}
		close(t1Done)
	}}, task.Normal); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Submit(nil, []task.Task{func(*task.Context) {
		close(t2Started)
	}}, task.Normal); err != nil {
		t.Fatal(err)
	}

	select {
	case <-t2Started:
	case <-time.After(2 * time.Second):
		t.Fatal("T2 never started while T1 was waiting, worker appears blocked")
	}
	select {
	case <-t1Done:
	case <-time.After(2 * time.Second):
		t.Fatal("T1 never completed")
	}
}

// TestShutdownDrainsPendingTask is the seed test S4: Shutdown returns
// only after in-flight work finishes, with no invariant assertions
// firing.
func TestShutdownDrainsPendingTask(t *testing.T) {
	logger := log.New("error", "text")
	p := pool.New("drain-test", 2, threadctx.PriorityNormal, threadctx.AffinitySpec{}, logger)
	p.Start()

	var finished int64
	if _, err := p.Submit(nil, []task.Task{func(*task.Context) {
		time.Sleep(100 * time.Millisecond)
		atomic.StoreInt64(&finished, 1)
	}}, task.Normal); err != nil {
		t.Fatal(err)
	}

	p.Shutdown()
	if atomic.LoadInt64(&finished) != 1 {
		t.Fatal("shutdown returned before the in-flight task finished")
	}
}

func TestEmptySubmissionRejected(t *testing.T) {
	p := newTestPool(t, 1)
	if _, err := p.Submit(nil, nil, task.Normal); err != pool.ErrEmptySubmission {
		t.Fatalf("got %v, want ErrEmptySubmission", err)
	}
}

func TestSubmitBeforeStartPanics(t *testing.T) {
	logger := log.New("error", "text")
	p := pool.New("unstarted", 1, threadctx.PriorityNormal, threadctx.AffinitySpec{}, logger)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic submitting before Start")
		}
	}()
	p.Submit(nil, []task.Task{func(*task.Context) {}}, task.Normal)
}
