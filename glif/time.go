// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import "github.com/emer/emergent/v2/etime"

// Time is the simulation clock driving neuron updates: accumulated time
// in ms and the completed step count, advanced together by StepInc
// after all neurons have been updated for the step.
type Time struct {

	// accumulated simulation time, in ms
	Ms float64 `inactive:"+"`

	// number of completed update steps
	Step int `inactive:"+"`

	// amount of time to increment per step, in ms
	Dt float64 `def:"0.1"`

	// current evaluation mode, e.g., Train, Test, for logging contexts
	Mode etime.Modes
}

// NewTime returns a new Time struct with default parameters.
func NewTime() *Time {
	tm := &Time{}
	tm.Defaults()
	return tm
}

// Defaults sets default values.
func (tm *Time) Defaults() {
	tm.Dt = 0.1
	tm.Mode = etime.Test
}

// Reset resets the counters back to zero.
func (tm *Time) Reset() {
	tm.Ms = 0
	tm.Step = 0
	if tm.Dt == 0 {
		tm.Defaults()
	}
}

// StepInc increments the clock by one update step.
func (tm *Time) StepInc() {
	tm.Step++
	tm.Ms += tm.Dt
}
