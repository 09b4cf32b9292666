// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ringbuf provides delay-line accumulation buffers for discrete-step
event delivery: a value added with a given step delay accumulates in the
slot for that future step, and everything destined for a step comes back
out, summed, when that step is drained. This is the standard mechanism for
delivering weighted events to a model that advances in fixed time steps.
*/
package ringbuf

// Buf is a float64 delay line. The zero value must be initialized with
// Init before use. Values are accumulated with Add and consumed with
// Drain, which must be called exactly once per simulation step.
type Buf struct {

	// accumulated values, indexed circularly from Zi
	Vals []float64

	// read position: the slot returned by the next Drain
	Zi int
}

// New returns a delay line with capacity for delays up to n-1 steps.
// Capacity grows automatically if longer delays are added.
func New(n int) *Buf {
	rb := &Buf{}
	rb.Init(n)
	return rb
}

// Init sets the capacity to hold delays up to n-1 steps (minimum 1) and
// zeroes all pending values.
func (rb *Buf) Init(n int) {
	if n < 1 {
		n = 1
	}
	if cap(rb.Vals) >= n {
		rb.Vals = rb.Vals[:n]
	} else {
		rb.Vals = make([]float64, n)
	}
	rb.Zi = 0
	rb.Zero()
}

// Len returns the current capacity (maximum delay + 1).
func (rb *Buf) Len() int {
	return len(rb.Vals)
}

// Zero clears all pending values, keeping capacity and position.
func (rb *Buf) Zero() {
	for i := range rb.Vals {
		rb.Vals[i] = 0
	}
}

// Add accumulates v into the slot delay steps in the future: it is
// included in the value returned by the delay-th following Drain call
// (delay 0 = the next Drain). Negative delays panic. Capacity grows as
// needed, preserving the pending schedule.
func (rb *Buf) Add(delay int, v float64) {
	if delay < 0 {
		panic("ringbuf.Buf: negative delay")
	}
	if delay >= len(rb.Vals) {
		rb.grow(delay + 1)
	}
	rb.Vals[rb.idx(delay)] += v
}

// Drain returns the accumulated value for the current step, zeroes its
// slot, and advances the line by one step.
func (rb *Buf) Drain() float64 {
	v := rb.Vals[rb.Zi]
	rb.Vals[rb.Zi] = 0
	rb.Zi = rb.idx(1)
	return v
}

func (rb *Buf) idx(delay int) int {
	i := rb.Zi + delay
	if i >= len(rb.Vals) {
		i -= len(rb.Vals)
	}
	return i
}

// grow reallocates to at least n slots, relocating pending values so that
// their remaining delays are unchanged.
func (rb *Buf) grow(n int) {
	if nn := 2 * len(rb.Vals); nn > n {
		n = nn
	}
	nv := make([]float64, n)
	for d := 0; d < len(rb.Vals); d++ {
		nv[d] = rb.Vals[rb.idx(d)]
	}
	rb.Vals = nv
	rb.Zi = 0
}
