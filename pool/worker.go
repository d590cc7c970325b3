// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"fmt"
	"runtime"
	"sync"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/taskpool/counter"
	"code.hybscloud.com/taskpool/fiber"
	"code.hybscloud.com/taskpool/internal/assertx"
	"code.hybscloud.com/taskpool/internal/log"
	"code.hybscloud.com/taskpool/internal/mru"
	"code.hybscloud.com/taskpool/priority"
	"code.hybscloud.com/taskpool/task"
	"code.hybscloud.com/taskpool/threadctx"
	"github.com/sirupsen/logrus"
)

// worker holds everything the teacher kept in thread-local
// TaskThreadContext for one pool worker: its index, CPU affinity
// request, per-worker MRU caches, the pending wait record, and the
// fiber currently running on its behalf. It is threaded explicitly
// through the worker loop and every fiber it resumes, in place of TLS
// (see SPEC_FULL.md §9).
type worker struct {
	pool      *Pool
	index     int
	threadCtx *threadctx.Context
	affinity  threadctx.AffinitySpec
	logger    *logrus.Entry

	fiberCache   *mru.Cache[fiber.Fiber]
	counterCache *mru.Cache[counter.Counter]

	threadFiber      *fiber.Fiber
	running          *fiber.Fiber
	waitingForPFiber *fiberQueued
	fiberToRelease   *fiber.Fiber
}

func newWorker(p *Pool, index int, osPriority threadctx.OSPriority, affinity threadctx.AffinitySpec) *worker {
	return &worker{
		pool:         p,
		index:        index,
		threadCtx:    threadctx.New(p.name, index, osPriority),
		affinity:     affinity,
		logger:       log.ForWorker(p.logger, index),
		fiberCache:   mru.New[fiber.Fiber](fiberCacheCapacity),
		counterCache: mru.New[counter.Counter](counterCacheCapacity),
	}
}

// threadScope is the body of the goroutine Pool.Start spawns for this
// worker: it is the Go analogue of the teacher's ThreadScope, pinning
// the OS thread, converting it into the thread fiber, and running the
// worker fiber chain until shutdown.
func (w *worker) threadScope(wg *sync.WaitGroup) {
	defer wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := w.threadCtx.Pin(w.affinity); err != nil {
		w.logger.WithError(err).Warn("cpu affinity pin failed")
	}

	w.threadFiber = fiber.EnterThread()
	first := w.pool.factory.Create(w.loop)
	w.threadFiber.Resume(first)
	// Control returns here only once the worker loop's shutdown path
	// resumes the thread fiber.

	w.drainCaches()
	if w.fiberToRelease != nil {
		w.pool.factory.Release(w.fiberToRelease)
		w.fiberToRelease = nil
	}
}

// loop is the worker fiber's entry point: the Go translation of
// TaskFiberLoop_. A freshly created worker fiber starts here from the
// top; a fiber recycled from the MRU cache instead continues right
// after the Resume call where it parked inside the loop.
func (w *worker) loop(self *fiber.Fiber) {
	w.running = self
	w.publishPendingWait()

	for {
		assertx.Invariant(w.waitingForPFiber == nil, "worker %d: WaitingForPFiber not cleared at loop top", w.index)

		progress := false

		if q, level, err := w.pool.bank.Dequeue(); err == nil {
			w.runTask(q)
			_ = level
			progress = true
		}

		if rec, err := w.pool.waiting.Dequeue(); err == nil {
			if rec.counter.Finished() {
				rec.released = self
				assertx.Invariant(rec.released != rec.preempted, "worker %d: released fiber equals preempted fiber", w.index)
				preempted := rec.preempted
				self.Resume(preempted)
				// --- Control returns here once some other worker hands
				// this fiber back out as a replacement. We were that
				// worker's "released" fiber; continue the loop and
				// publish whatever wait record it set for us.
				w.running = self
				w.publishPendingWait()
			} else if err := w.pool.waiting.Enqueue(&rec); err != nil {
				w.pool.fatal("waiting-registry", w.index, err)
			}
			progress = true
		}

		if !progress {
			if w.pool.exitSignal.LoadAcquire() {
				break
			}
			runtime.Gosched()
		}
	}

	w.fiberToRelease = self
	self.Resume(w.threadFiber)
	panic(fmt.Sprintf("worker %d: worker fiber resumed after shutdown handoff", w.index))
}

// runTask invokes q.Task, recovering a task panic so the counter is
// always decremented and the pool's logger records the failure, per
// spec.md §9's "use a scope-guard / deferred action around the call
// site".
func (w *worker) runTask(q priority.Queued) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.WithField("task_panic", fmt.Sprintf("%v", r)).Error("task panicked")
		}
		if q.Counter != nil {
			q.Counter.Decrement()
		}
	}()
	q.Task(task.NewContext(w))
}

// publishPendingWait enqueues this worker's pending wait record, if
// any, into the waiting registry and clears it: the Go translation of
// EnqueueCurrentThreadWaitingFiberIFN_.
func (w *worker) publishPendingWait() {
	if w.waitingForPFiber == nil {
		return
	}
	rec := w.waitingForPFiber
	w.waitingForPFiber = nil
	if err := w.pool.waiting.Enqueue(&rec); err != nil {
		w.pool.fatal("waiting-registry", w.index, err)
	}
}

// wait suspends the calling worker fiber until c finishes, per
// spec.md §4.8's worker-path Wait algorithm.
func (w *worker) wait(c *counter.Counter) {
	if c.Finished() {
		return
	}

	self := w.running
	rec := &fiberQueued{preempted: self, counter: c}
	w.waitingForPFiber = rec

	replacement, ok := w.fiberCache.Get()
	if !ok {
		replacement = w.pool.factory.Create(w.loop)
	}

	self.Resume(replacement)
	// --- Control returns here once some worker observes c finished and
	// resumes self again.
	w.running = self

	assertx.Invariant(c.Finished(), "worker %d: wait returned with counter unfinished", w.index)
	assertx.Invariant(rec.preempted == self, "worker %d: preempted fiber identity changed across wait", w.index)
	assertx.Invariant(rec.released != nil && rec.released != rec.preempted, "worker %d: invalid released fiber after wait", w.index)

	if evicted, full := w.fiberCache.Release(rec.released); full {
		w.pool.factory.Release(evicted)
	}
}

// drainCaches empties this worker's MRU caches at shutdown, returning
// every cached fiber to the factory before asserting the caches empty:
// the resolution SPEC_FULL.md records for the teacher's
// Clear_AssumeCacheDestroyed ownership question.
func (w *worker) drainCaches() {
	for {
		f, ok := w.fiberCache.Get()
		if !ok {
			break
		}
		w.pool.factory.Release(f)
	}
	w.fiberCache.ClearAssumeEmpty()

	for {
		if _, ok := w.counterCache.Get(); !ok {
			break
		}
	}
	w.counterCache.ClearAssumeEmpty()
}

// waitBusy is the non-worker Wait fast path: a caller with no running
// worker fiber simply backs off until the counter finishes.
func waitBusy(c *counter.Counter) {
	bo := iox.Backoff{}
	for !c.Finished() {
		bo.Wait()
	}
}
