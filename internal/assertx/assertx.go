// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package assertx centralizes the invariant checks the teacher spread
// throughout TaskPool.cpp as debug-only asserts. This module treats
// them as always-on: a violated invariant here (a wait record not
// cleared at loop top, a released fiber equal to its preempted fiber,
// a queue left non-empty at shutdown) is a scheduler bug, not a
// recoverable runtime condition, so it panics unconditionally rather
// than compiling out in release builds the way the C++ asserts did.
package assertx

import "fmt"

// Invariant panics with a formatted message if cond is false.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("taskpool: invariant violated: "+format, args...))
	}
}
