// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package threadctx carries the per-worker identity and CPU-affinity
// bookkeeping the teacher's TaskThreadContext kept in OS thread-local
// storage (Source/Core/Thread/ThreadContext.h).
//
// Go goroutines are not bound to OS threads, so this package does not
// attempt to reconstruct TLS: a worker's Context is created once and
// threaded explicitly through its goroutine's call stack by
// [code.hybscloud.com/taskpool/pool], the same resolution
// SPEC_FULL.md records for the teacher's thread-local design.
package threadctx

import (
	"fmt"
	"sync/atomic"
)

// OSPriority is a requested OS scheduling priority for a pool's worker
// threads. It is recorded in [Context] only: no platform applies it to
// the OS thread ([Context.Pin] sets CPU affinity, not priority).
type OSPriority int

const (
	PriorityNormal OSPriority = iota
	PriorityHigh
	PriorityLow
)

func (p OSPriority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// AffinitySpec names the CPU indices a worker thread should be pinned
// to. An empty CPUs leaves the thread unpinned.
type AffinitySpec struct {
	CPUs []int
}

// Context identifies one pool worker for logging and affinity pinning.
// It is immutable after construction.
type Context struct {
	PoolName   string
	WorkerName string
	Index      int
	Priority   OSPriority
}

// String renders a log-friendly identifier, e.g. "general/worker-3".
func (c *Context) String() string {
	return fmt.Sprintf("%s/%s", c.PoolName, c.WorkerName)
}

// New builds a Context for worker index within pool poolName.
func New(poolName string, index int, priority OSPriority) *Context {
	return &Context{
		PoolName:   poolName,
		WorkerName: fmt.Sprintf("worker-%d", index),
		Index:      index,
		Priority:   priority,
	}
}

// Pin applies spec as this goroutine's OS thread affinity, best-effort.
// The caller must have already called runtime.LockOSThread: affinity
// set on an unlocked goroutine could be silently undone the next time
// the Go scheduler migrates it to a different OS thread.
func (c *Context) Pin(spec AffinitySpec) error {
	if len(spec.CPUs) == 0 {
		return nil
	}
	return pinCurrentThread(spec.CPUs)
}

// mainTID holds the OS thread id the process's main goroutine was
// running on when MarkMainThread was called, or -1 if never called.
var mainTID int64 = -1

// MarkMainThread records the calling goroutine's OS thread as "the
// main thread". cmd/taskpooldemo calls this once, before starting any
// pool, from main(), which Go guarantees runs on the process's
// initial OS thread for as long as it doesn't itself call
// runtime.LockOSThread elsewhere first.
func MarkMainThread() {
	atomic.StoreInt64(&mainTID, int64(currentOSThreadID()))
}

// IsMainThread reports whether the calling goroutine is currently
// running on the OS thread MarkMainThread recorded. Best-effort: on
// platforms where currentOSThreadID is a stub it always returns false
// after the first MarkMainThread call, never a false positive.
func IsMainThread() bool {
	tid := atomic.LoadInt64(&mainTID)
	return tid != -1 && int64(currentOSThreadID()) == tid
}

// Current returns a Context describing the calling OS thread when it
// is the main thread; pool workers instead carry their own Context
// threaded explicitly through the worker loop (see package doc).
func Current() *Context {
	if IsMainThread() {
		return &Context{PoolName: "main", WorkerName: "main", Index: -1}
	}
	return &Context{PoolName: "unknown", WorkerName: "unknown", Index: -1}
}
