// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fiber provides cooperative, user-space-style execution
// contexts for the task pool's worker loop.
//
// Go has no portable stackful-coroutine primitive, so this package
// reaches for the idiom the retrieval pack itself uses for the same
// problem (see e.g. a fiber executor built on a goroutine gated by a
// resume/complete channel pair): a Fiber is a goroutine parked on a
// channel receive. Resuming a fiber is a synchronous handshake, wake
// the target, then park the caller on its own channel until something
// resumes it in turn. Because a goroutine blocked on a channel receive
// keeps its entire call stack, this gives true coroutine semantics
// (suspend anywhere, resume exactly there) without stack-switching
// assembly.
//
// The resulting contract matches spec.md §4.3 exactly: a fiber
// switches only where the code calls Resume, exactly one side of a
// Resume pair is ever runnable, and an entry function that returns
// normally (as opposed to being torn down by [Factory.Release]) is
// undefined behavior from the scheduler's point of view.
package fiber

// signal is sent over a Fiber's wake channel. terminate distinguishes
// "resume and continue running" from "wake up only to exit"; the
// latter is how a parked, cached fiber is torn down, since Go has no
// way to unilaterally kill a goroutine.
type signal struct {
	terminate bool
}

// terminated is the panic value a Fiber's goroutine raises to unwind
// every nested Resume call back out to its own entry point when told
// to terminate. It is recovered inside Create and never escapes the
// fiber's goroutine.
type terminated struct{}

// Fiber is a cooperative execution context: either the anchor fiber
// formed by converting the calling goroutine (see [EnterThread]), or a
// fiber created with its own entry point (see [Create]).
type Fiber struct {
	wake chan signal
}

// EnterThread converts the calling goroutine into a thread fiber: the
// anchor fiber for whichever worker is calling it. It must be called
// once, before any other fiber operation happens on that goroutine's
// lineage, and the returned Fiber must never be passed to
// [Factory.Release]: it is not a factory-owned fiber.
func EnterThread() *Fiber {
	return &Fiber{wake: make(chan signal)}
}

// Create allocates a new fiber whose entry point is fn. The fiber does
// not begin running fn until it is first resumed; fn receives the
// fiber's own handle (so it can Resume others in turn) and must never
// return: per spec.md §3, a fiber that returns from its entry is
// undefined behavior. The only supported way to end a fiber's life is
// [Factory.Release].
func Create(fn func(self *Fiber)) *Fiber {
	f := &Fiber{wake: make(chan signal)}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(terminated); ok {
					return
				}
				panic(r)
			}
		}()
		msg := <-f.wake
		if msg.terminate {
			return
		}
		fn(f)
	}()
	return f
}

// Resume switches execution from self (the fiber calling Resume) to
// target: target is woken, self is suspended until some fiber later
// resumes it in turn, and only then does Resume return. Resuming a nil
// fiber, or a fiber resuming itself, is fiber misuse and panics;
// spec.md §7 classes both as fatal scheduler bugs.
func (self *Fiber) Resume(target *Fiber) {
	if target == nil {
		panic("fiber: resume of nil fiber")
	}
	if target == self {
		panic("fiber: fiber resumed itself")
	}
	target.wake <- signal{}
	msg := <-self.wake
	if msg.terminate {
		panic(terminated{})
	}
}

// terminate wakes a parked fiber's goroutine only so it can exit. The
// caller must be certain the fiber is currently idle (freshly created
// and never resumed, or parked after being released back to an MRU
// cache/factory); resuming an actively-scheduled fiber this way is
// fiber misuse.
func (f *Fiber) terminate() {
	f.wake <- signal{terminate: true}
}
