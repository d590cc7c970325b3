//go:build !linux

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package threadctx

// pinCurrentThread is a no-op outside Linux: CPU affinity pinning is
// best-effort only, per spec.md's affinity open question.
func pinCurrentThread(_ []int) error {
	return nil
}

// currentOSThreadID is a stub outside Linux: no portable, cgo-free way
// to read the kernel thread id exists, so main-thread detection is
// always false after the first call (never a false positive).
func currentOSThreadID() int {
	return -1
}
