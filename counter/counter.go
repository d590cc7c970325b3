// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package counter provides the reference-counted completion token a
// submitted task batch shares, adapted from the teacher's TaskCounter
// (Source/Core/Thread/Task/TaskPool.cpp in the original C++ engine).
package counter

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"github.com/google/uuid"
)

// Counter tracks the number of outstanding tasks in a submitted batch.
// It is created holding the batch size and decremented once per
// completed task; Finished reports whether it has reached zero.
//
// A Counter is logically owned by exactly one submitter and at most one
// waiter. Producers (tasks) only ever decrement it; only the owning
// submitter calls Reset, and only after observing Finished.
type Counter struct {
	count atomix.Int64

	// BatchID tags the batch for log correlation only; it plays no role
	// in scheduling semantics.
	BatchID uuid.UUID
}

// New creates a Counter initialized to n, which must be > 0: spec.md's
// boundary rule is that an empty submission is rejected outright rather
// than silently returning a pre-finished counter.
func New(n int) *Counter {
	if n <= 0 {
		panic("counter: n must be > 0")
	}
	c := &Counter{BatchID: uuid.New()}
	c.count.StoreRelease(int64(n))
	return c
}

// Decrement atomically subtracts one from the outstanding count. It
// must never be called more times than the batch size across the
// counter's New/Reset lifetime: doing so is counter misuse and panics,
// since a negative count can never occur otherwise by construction.
func (c *Counter) Decrement() {
	if c.count.AddAcqRel(-1) < 0 {
		panic(fmt.Sprintf("counter: decremented past zero (batch %s)", c.BatchID))
	}
}

// Finished reports whether every task in the batch has completed.
func (c *Counter) Finished() bool {
	return c.count.LoadAcquire() == 0
}

// Reset reinitializes a finished counter to n for reuse from an MRU
// cache. It panics if the counter is not finished, or if n <= 0:
// reusing a counter mid-flight is counter misuse.
func (c *Counter) Reset(n int) {
	if !c.Finished() {
		panic(fmt.Sprintf("counter: reset while pending (batch %s)", c.BatchID))
	}
	if n <= 0 {
		panic("counter: n must be > 0")
	}
	c.BatchID = uuid.New()
	c.count.StoreRelease(int64(n))
}
