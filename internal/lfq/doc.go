// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfq provides a single bounded MPMC queue type.
//
// # Basic usage
//
//	q := lfq.New[int](1024)
//
//	val := 42
//	if err := q.Enqueue(&val); err != nil {
//	    // queue full
//	}
//
//	elem, err := q.Dequeue()
//	if err == nil {
//	    fmt.Println(elem)
//	}
//
// # Thread safety
//
// Queue[T] is safe for any number of concurrent producers and
// consumers. Capacity rounds up to the next power of two; minimum
// capacity is 2.
//
// # Error handling
//
// Enqueue/Dequeue return [ErrWouldBlock] (an alias of
// [code.hybscloud.com/iox.ErrWouldBlock]) when the operation cannot
// proceed immediately. This is a control-flow signal, not a failure;
// retry with backoff:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        break
//	    }
//	    if !lfq.IsWouldBlock(err) {
//	        panic(err) // unexpected
//	    }
//	    backoff.Wait()
//	}
package lfq
