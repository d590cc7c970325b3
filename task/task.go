// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package task defines the unit of work the task pool schedules: an
// erased callable paired with a priority level.
package task

// Priority selects which sub-queue of a [code.hybscloud.com/taskpool/priority.Bank]
// a task is enqueued into. Levels are strictly ordered: Highest fully
// drains before High, which fully drains before Normal, and so on,
// unless a higher level is transiently empty between polls.
type Priority int

const (
	Highest Priority = iota
	High
	Normal
	Low

	// numPriorities is the exclusive upper bound on Priority values,
	// the Go analogue of the original's "_Count" sentinel.
	numPriorities
)

// NumPriorities returns the number of distinct priority levels.
func NumPriorities() int {
	return int(numPriorities)
}

// String renders the priority level's name for logging.
func (p Priority) String() string {
	switch p {
	case Highest:
		return "highest"
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	default:
		return "invalid"
	}
}

// Valid reports whether p names one of the defined priority levels.
func (p Priority) Valid() bool {
	return p >= Highest && p < numPriorities
}

// Context is passed to every running task and threaded explicitly
// through Submit/Wait calls made from within a task body. This is the
// module's resolution of the teacher's thread-local TaskThreadContext:
// Go has no safe, portable way to recover "which worker is the calling
// goroutine" the way the original recovers "which OS thread is this,"
// so the context is passed explicitly instead of discovered implicitly.
//
// owner is opaque here (concretely a *pool.worker) to avoid an import
// cycle between this package and the pool package; pool recovers its
// own type with a type assertion. External callers never construct a
// Context themselves, pass nil when calling Submit/Wait from outside
// any task body, and the pool falls back to its non-worker fast path.
type Context struct {
	owner any
}

// NewContext wraps owner (a *pool.worker) for threading through task
// invocations. Only the pool package calls this.
func NewContext(owner any) *Context {
	return &Context{owner: owner}
}

// Owner returns the opaque worker value a Context carries, or nil for
// a Context representing code not running on a pool worker.
func (c *Context) Owner() any {
	if c == nil {
		return nil
	}
	return c.owner
}

// Task is an erased unit of work. A task must be self-contained: it
// either owns its captured data or references data that outlives the
// pool. Tasks are value-copied into the priority queue, so a Task must
// remain valid to invoke after the call that submitted it returns.
type Task func(*Context)
