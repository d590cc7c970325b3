// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package counter_test

import (
	"testing"

	"code.hybscloud.com/taskpool/counter"
)

func TestNewAndDecrementToFinished(t *testing.T) {
	c := counter.New(3)
	if c.Finished() {
		t.Fatal("fresh counter with n=3 should not be finished")
	}
	c.Decrement()
	c.Decrement()
	if c.Finished() {
		t.Fatal("counter at 1 should not be finished")
	}
	c.Decrement()
	if !c.Finished() {
		t.Fatal("counter at 0 should be finished")
	}
}

func TestNewPanicsOnNonPositiveN(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for n <= 0")
		}
	}()
	counter.New(0)
}

func TestDecrementPastZeroPanics(t *testing.T) {
	c := counter.New(1)
	c.Decrement()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic decrementing past zero")
		}
	}()
	c.Decrement()
}

func TestResetRequiresFinished(t *testing.T) {
	c := counter.New(2)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic resetting an unfinished counter")
		}
	}()
	c.Reset(5)
}

func TestResetReinitializesCounter(t *testing.T) {
	c := counter.New(1)
	firstBatch := c.BatchID
	c.Decrement()
	if !c.Finished() {
		t.Fatal("counter should be finished")
	}
	c.Reset(4)
	if c.Finished() {
		t.Fatal("counter should not be finished after reset(4)")
	}
	if c.BatchID == firstBatch {
		t.Fatal("reset should assign a fresh batch id")
	}
	for i := 0; i < 4; i++ {
		c.Decrement()
	}
	if !c.Finished() {
		t.Fatal("counter should be finished after 4 decrements")
	}
}
