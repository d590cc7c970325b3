// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package priority implements the strict-priority task bank described
// in spec.md §4.2, adapted from the teacher's TaskPriorityQueue
// (Source/Core/Thread/Task/TaskPriorityQueue.h): one bounded MPMC queue
// per [code.hybscloud.com/taskpool/task.Priority] level, polled from
// Highest to Low so a level only ever yields a task once every level
// above it is empty.
package priority

import (
	"fmt"

	"code.hybscloud.com/taskpool/counter"
	"code.hybscloud.com/taskpool/internal/lfq"
	"code.hybscloud.com/taskpool/task"
)

// Queued pairs a task with the counter its completion decrements. It
// is the unit of value stored in each level's queue.
type Queued struct {
	Task    task.Task
	Counter *counter.Counter
}

// Bank holds one queue per defined [task.Priority] level. A Bank's
// queues are all sized identically; capacity is rounded up to a power
// of two by the underlying queue exactly as [lfq.New] does.
type Bank struct {
	queues []*lfq.Queue[Queued]
}

// New creates a Bank with one queue of the given per-level capacity
// for every defined priority level.
func New(perLevelCapacity int) *Bank {
	b := &Bank{queues: make([]*lfq.Queue[Queued], task.NumPriorities())}
	for i := range b.queues {
		b.queues[i] = lfq.New[Queued](perLevelCapacity)
	}
	return b
}

// Enqueue places q onto the queue for priority level p. It returns an
// error satisfying [lfq.IsWouldBlock] when that level's queue is full.
// Callers that treat this as non-fatal are making a policy choice the
// pool itself does not make; [code.hybscloud.com/taskpool/pool] always
// escalates a full bank to a fatal error, per spec.md's resolution of
// its overflow open question (see DESIGN.md).
func (b *Bank) Enqueue(q *Queued, p task.Priority) error {
	if !p.Valid() {
		panic(fmt.Sprintf("priority: invalid level %d", int(p)))
	}
	return b.queues[p].Enqueue(q)
}

// Dequeue polls every level from Highest to Low and returns the first
// queued task found, alongside the level it came from. It returns
// [lfq.ErrWouldBlock] only once every level is empty.
func (b *Bank) Dequeue() (Queued, task.Priority, error) {
	for p := task.Priority(0); p.Valid(); p++ {
		if q, err := b.queues[p].Dequeue(); err == nil {
			return q, p, nil
		}
	}
	var zero Queued
	return zero, 0, lfq.ErrWouldBlock
}

// Empty reports whether every level is currently empty.
func (b *Bank) Empty() bool {
	for _, q := range b.queues {
		if !q.Empty() {
			return false
		}
	}
	return true
}

// Capacity returns the rounded capacity shared by every level's queue.
func (b *Bank) Capacity() int {
	return b.queues[0].Cap()
}
