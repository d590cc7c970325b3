// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fiber

import "code.hybscloud.com/atomix"

// Factory tracks every fiber a pool has ever created, so shutdown can
// assert none are still outstanding: the Go analogue of the original
// factory's debug-only leak check.
type Factory struct {
	outstanding atomix.Int64
}

// Create allocates a new fiber via [Create], counting it against the
// factory's outstanding total.
func (f *Factory) Create(entry func(self *Fiber)) *Fiber {
	f.outstanding.AddAcqRel(1)
	return Create(entry)
}

// Release permanently tears down fiber, which must be idle (parked,
// never concurrently resumed elsewhere) at the time of the call,
// exactly the state an MRU fiber cache holds its entries in.
func (f *Factory) Release(fiber *Fiber) {
	fiber.terminate()
	f.outstanding.AddAcqRel(-1)
}

// Outstanding returns the number of fibers created but not yet
// released. A pool's shutdown path asserts this reaches zero.
func (f *Factory) Outstanding() int64 {
	return f.outstanding.LoadAcquire()
}
