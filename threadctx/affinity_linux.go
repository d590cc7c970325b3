//go:build linux

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package threadctx

import "golang.org/x/sys/unix"

// pinCurrentThread sets the calling OS thread's CPU affinity mask to
// cpus via sched_setaffinity, replacing the no-op the affinity stub
// this package is adapted from left for a later real implementation.
func pinCurrentThread(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	tid := unix.Gettid()
	return unix.SchedSetaffinity(tid, &set)
}

// currentOSThreadID returns the calling goroutine's underlying kernel
// thread id. Meaningful only immediately after runtime.LockOSThread.
func currentOSThreadID() int {
	return unix.Gettid()
}
