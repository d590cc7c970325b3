// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pool

import (
	"code.hybscloud.com/taskpool/counter"
	"code.hybscloud.com/taskpool/fiber"
)

// fiberQueued is a waiter record, adapted from the teacher's
// FiberQueued (Source/Core/Thread/Task/TaskPool.cpp): preempted is the
// fiber that called Wait, counter is what it is waiting on, and
// released is filled in by whichever worker observes the counter
// finished, naming the fiber that yielded to resume preempted.
//
// In the original this record lives on the preempted fiber's C++
// stack, valid only while that fiber is suspended. Here it is an
// ordinary heap value: taking its address to hand to the waiting
// registry makes the Go compiler's escape analysis promote it
// automatically, giving the same "valid for exactly as long as the
// fiber is suspended" lifetime without manual bookkeeping.
type fiberQueued struct {
	preempted *fiber.Fiber
	counter   *counter.Counter
	released  *fiber.Fiber
}
