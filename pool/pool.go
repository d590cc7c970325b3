// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pool implements the fiber-based task pool facade: Submit,
// Wait, SubmitAndWait, and pool lifecycle, adapted from the teacher's
// TaskPool (Source/Core/Thread/Task/TaskPool.cpp/.h in the original
// engine).
package pool

import (
	"errors"
	"fmt"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/taskpool/counter"
	"code.hybscloud.com/taskpool/fiber"
	"code.hybscloud.com/taskpool/internal/assertx"
	"code.hybscloud.com/taskpool/internal/lfq"
	"code.hybscloud.com/taskpool/internal/log"
	"code.hybscloud.com/taskpool/priority"
	"code.hybscloud.com/taskpool/task"
	"code.hybscloud.com/taskpool/threadctx"
	"github.com/sirupsen/logrus"
)

// ErrEmptySubmission is returned by Submit/SubmitAndWait for a
// zero-length task batch. spec.md §9 resolves this open question as
// "forbidden", not "pre-finished counter".
var ErrEmptySubmission = errors.New("taskpool: empty task submission")

// FatalError identifies an unrecoverable scheduler condition, a
// capacity the caller must size the pool for, per spec.md §7. It is
// the panic value when the priority bank or the waiting registry is
// full; other misuse (an invalid level, Submit outside Start/Shutdown,
// a violated invariant) panics with a plain message string.
type FatalError struct {
	Pool   string
	Queue  string
	Worker int
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("taskpool: fatal: pool=%s queue=%s worker=%d: %v", e.Pool, e.Queue, e.Worker, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Pool is a named group of worker threads sharing one priority bank,
// one waiting-fiber registry, and one fiber factory.
type Pool struct {
	name    string
	bank    *priority.Bank
	waiting *lfq.Queue[*fiberQueued]
	factory *fiber.Factory
	workers []*worker
	logger  *logrus.Entry

	exitSignal atomix.Bool
	started    atomix.Bool
	wg         sync.WaitGroup
}

// Default per-pool capacities. Exposed as constants rather than a
// configuration surface: spec.md §6 ties queue sizing to the
// workload, not to deployment-time settings.
const (
	defaultBankCapacity    = 4096
	defaultWaitingCapacity = 1024
	fiberCacheCapacity     = 32
	counterCacheCapacity   = 32
)

// New constructs a Pool with workerCount worker threads, each
// requesting the given OS priority and CPU affinity. Workers are not
// started until Start is called.
func New(name string, workerCount int, osPriority threadctx.OSPriority, affinity threadctx.AffinitySpec, logger *logrus.Logger) *Pool {
	if workerCount < 1 {
		panic(fmt.Sprintf("taskpool: %s: workerCount must be >= 1", name))
	}
	p := &Pool{
		name:    name,
		bank:    priority.New(defaultBankCapacity),
		waiting: lfq.New[*fiberQueued](defaultWaitingCapacity),
		factory: &fiber.Factory{},
		logger:  log.ForPool(logger, name),
	}
	p.workers = make([]*worker, workerCount)
	for i := range p.workers {
		p.workers[i] = newWorker(p, i, osPriority, affinity)
	}
	return p
}

// Name returns the pool's configured name.
func (p *Pool) Name() string { return p.name }

// Start spawns every worker thread and returns without waiting for
// them to begin running their worker loop. It panics if the pool is
// already started.
func (p *Pool) Start() {
	if p.started.LoadAcquire() {
		panic(fmt.Sprintf("taskpool: %s: pool already started", p.name))
	}
	p.exitSignal.StoreRelease(false)
	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go w.threadScope(&p.wg)
	}
	p.started.StoreRelease(true)
	p.logger.WithField("workers", len(p.workers)).Info("pool started")
}

// Shutdown signals every worker to exit at the first pass through its
// loop that finds no task and no waiting fiber, joins them, and asserts the bank, waiting registry, and
// fiber factory all quiesced cleanly. It is a no-op if the pool was
// never started.
func (p *Pool) Shutdown() {
	if !p.started.LoadAcquire() {
		return
	}
	p.exitSignal.StoreRelease(true)
	p.wg.Wait()

	assertx.Invariant(p.bank.Empty(), "%s: priority bank not empty at shutdown", p.name)
	assertx.Invariant(p.waiting.Empty(), "%s: waiting registry not empty at shutdown", p.name)
	assertx.Invariant(p.factory.Outstanding() == 0, "%s: %d fibers still outstanding at shutdown", p.name, p.factory.Outstanding())

	p.started.StoreRelease(false)
	p.logger.Info("pool shut down")
}

// Submit enqueues tasks at the given priority level, sharing one
// counter across the whole batch. ctx should be the [task.Context]
// passed to the calling task body, or nil when called from outside any
// task (e.g. from a pool consumer's own main goroutine).
func (p *Pool) Submit(ctx *task.Context, tasks []task.Task, level task.Priority) (*counter.Counter, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptySubmission
	}
	if !level.Valid() {
		panic(fmt.Sprintf("taskpool: %s: invalid priority level %d", p.name, int(level)))
	}
	if !p.started.LoadAcquire() {
		panic(fmt.Sprintf("taskpool: %s: submit before Start or after Shutdown", p.name))
	}

	w := workerFromContext(ctx)
	c := p.acquireCounter(w, len(tasks))
	for i := range tasks {
		q := priority.Queued{Task: tasks[i], Counter: c}
		if err := p.bank.Enqueue(&q, level); err != nil {
			p.fatal("priority-bank", workerIndex(w), err)
		}
	}
	return c, nil
}

// Wait blocks until c is finished. Called with ctx == nil (or from a
// goroutine outside any task body), it busy-yields. Called with the
// [task.Context] of a running task, it suspends the calling worker
// fiber and lets its worker thread run other work in the meantime,
// the pool's only real suspension point besides worker-loop idle and
// shutdown.
func (p *Pool) Wait(ctx *task.Context, c *counter.Counter) {
	if c.Finished() {
		return
	}
	w := workerFromContext(ctx)
	if w == nil {
		waitBusy(c)
		return
	}
	w.wait(c)
	p.releaseCounter(w, c)
}

// SubmitAndWait submits tasks at level and waits for the batch to
// finish.
func (p *Pool) SubmitAndWait(ctx *task.Context, tasks []task.Task, level task.Priority) error {
	c, err := p.Submit(ctx, tasks, level)
	if err != nil {
		return err
	}
	p.Wait(ctx, c)
	return nil
}

func (p *Pool) acquireCounter(w *worker, n int) *counter.Counter {
	if w != nil {
		if c, ok := w.counterCache.Get(); ok {
			c.Reset(n)
			return c
		}
	}
	return counter.New(n)
}

func (p *Pool) releaseCounter(w *worker, c *counter.Counter) {
	if w == nil {
		return
	}
	w.counterCache.Release(c) // evicted counter, if any, is simply dropped for GC
}

// fatal logs and panics with a [FatalError]. Logged at fatal severity
// without exiting the process: logrus's Fatal convenience methods call
// os.Exit, which this package must not do; a panic lets callers and
// tests observe and recover from it.
func (p *Pool) fatal(queueName string, workerIdx int, err error) {
	fe := &FatalError{Pool: p.name, Queue: queueName, Worker: workerIdx, Err: err}
	p.logger.WithFields(logrus.Fields{"queue": queueName, "worker": workerIdx}).Log(logrus.FatalLevel, fe.Error())
	panic(fe)
}

func workerFromContext(ctx *task.Context) *worker {
	if ctx == nil {
		return nil
	}
	w, _ := ctx.Owner().(*worker)
	return w
}

func workerIndex(w *worker) int {
	if w == nil {
		return -1
	}
	return w.index
}
