// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfq provides the bounded multi-producer multi-consumer queue
// that backs every per-priority task queue and the waiting-fiber
// registry in [code.hybscloud.com/taskpool/pool].
package lfq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Queue is a CAS-based multi-producer multi-consumer bounded queue.
//
// This is Vyukov's bounded MPMC ring: each slot carries a sequence
// number that producers and consumers validate against their own
// position before committing a CAS on the shared tail/head counters.
// Sequence numbers grow monotonically so there is no ABA hazard, and
// slots are cache-line padded to keep independent producers/consumers
// from false-sharing.
//
// Both Enqueue and Dequeue are non-blocking: they return ErrWouldBlock
// rather than waiting when the queue is, respectively, full or empty.
type Queue[T any] struct {
	_        pad
	tail     atomix.Uint64 // producer position
	_        pad
	head     atomix.Uint64 // consumer position
	_        pad
	buffer   []slot[T]
	mask     uint64
	capacity uint64
}

type slot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort // pad to cache line
}

// New creates a bounded MPMC queue. Capacity rounds up to the next
// power of two and must be at least 2.
func New[T any](capacity int) *Queue[T] {
	if capacity < 2 {
		panic("lfq: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	q := &Queue[T]{
		buffer:   make([]slot[T], n),
		mask:     n - 1,
		capacity: n,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}

	return q
}

// Enqueue adds an element to the queue.
// Returns ErrWouldBlock if the queue is full.
func (q *Queue[T]) Enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.data = *elem
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Dequeue removes and returns an element from the queue.
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *Queue[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				elem := slot.data
				var zero T
				slot.data = zero
				slot.seq.StoreRelease(head + q.capacity)
				return elem, nil
			}
		} else if diff < 0 {
			var zero T
			return zero, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue's usable capacity (rounded up to a power of two).
func (q *Queue[T]) Cap() int {
	return int(q.capacity)
}

// Empty reports whether the queue currently holds no elements.
// The result may be stale by the time the caller observes it under
// concurrent access; callers that need a definitive answer must rely
// on external quiescence (e.g. pool shutdown having joined all workers).
func (q *Queue[T]) Empty() bool {
	return q.tail.LoadAcquire() == q.head.LoadAcquire()
}
