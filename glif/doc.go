// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package glif implements a conductance-based generalized leaky
integrate-and-fire neuron with five selectable mechanism variants,
from the traditional LIF model up to the full adapting model with
spike-dependent and voltage-dependent threshold components and
after-spike currents (LIFRASCA), as fit in the Allen Cell Types
Database.

The neuron is a hybrid continuous / discrete-event system: the membrane
potential and the per-receptor alpha-function conductance pairs are
integrated by an adaptive stepper across each fixed update step, while
spike injection, refractory clamping, threshold adaptation, and
after-spike current bookkeeping are discrete per-step events advanced
by exact exponential propagators. Incoming spikes and currents are
queued on delay lines and drained once per step.

Basic use:

	nr := glif.New()
	tm := glif.NewTime()
	tm.Dt = nr.Dt
	nr.AddSpike(0, 1, 10)
	for i := 0; i < 1000; i++ {
		spiked, err := nr.Update(tm)
		...
		tm.StepInc()
	}

Parameters can also be read and written as a dictionary of named values
through GetStatus and SetStatus, which validates the whole update and
applies it atomically.
*/
package glif
