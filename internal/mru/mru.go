// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mru is a generic reimplementation of the teacher's
// TMRUCache<T, Dim> (Source/Runtime/Core/Public/Thread/MRUCache.h): a
// small, fixed-capacity, per-worker circular buffer of most-recently
// released entries, used to avoid allocator churn in the task pool's
// wait/resume hot path.
//
// A Cache is not safe for concurrent use, it is owned by exactly one
// worker goroutine for its entire lifetime, the same constraint the
// original enforced with a debug-only thread-id check.
package mru

// Cache is a fixed-capacity MRU ring of *T pointers. Dim must be a
// power of two, mirroring the original's static_assert.
type Cache[T any] struct {
	head, tail uint64
	dim        uint64
	mask       uint64
	slots      []*T
}

// New creates a Cache with the given capacity, rounded up to the next
// power of two.
func New[T any](capacity int) *Cache[T] {
	if capacity < 1 {
		panic("mru: capacity must be >= 1")
	}
	dim := uint64(1)
	for dim < uint64(capacity) {
		dim <<= 1
	}
	return &Cache[T]{
		dim:   dim,
		mask:  dim - 1,
		slots: make([]*T, dim),
	}
}

// Empty reports whether the cache currently holds no entries.
func (c *Cache[T]) Empty() bool {
	return c.head == c.tail
}

// Get returns the most-recently-released entry and true if the cache
// is non-empty, or (nil, false) when it was empty, mirroring
// Get_ReturnIfEmpty's inverted boolean but as an idiomatic Go "ok"
// result.
func (c *Cache[T]) Get() (entry *T, ok bool) {
	if c.head == c.tail {
		return nil, false
	}
	c.head--
	idx := c.head & c.mask
	entry = c.slots[idx]
	c.slots[idx] = nil
	return entry, true
}

// Release stores entry for later reuse. If the cache is already full,
// it evicts the oldest entry and returns it alongside ok=true so the
// caller can dispose of it; otherwise it returns (nil, false).
func (c *Cache[T]) Release(entry *T) (evicted *T, ok bool) {
	if c.head-c.tail == c.dim {
		evicted = c.slots[c.tail&c.mask]
		c.tail++
		c.slots[c.head&c.mask] = entry
		c.head++
		return evicted, true
	}
	c.slots[c.head&c.mask] = entry
	c.head++
	return nil, false
}

// ClearAssumeEmpty zeroes internal bookkeeping. It panics if the cache
// is not already empty. Callers must drain every entry (returning each
// to its owning factory/allocator) before calling this; the pool always
// drains, never this method.
func (c *Cache[T]) ClearAssumeEmpty() {
	if !c.Empty() {
		panic("mru: ClearAssumeEmpty called on a non-empty cache")
	}
	c.head, c.tail = 0, 0
}
