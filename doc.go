// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package glif is the overall repository for the conductance-based
generalized leaky integrate-and-fire (GLIF) neuron models implemented in
the Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* glif: the core neuron model: parameters, state, cached per-step
coefficients, the update driver, recordables, and the named-field status
dictionary. Five model variants are selectable, from the traditional
fixed-threshold LIF up to the full adapting model with biologically
defined reset rules, after-spike currents, and a voltage-dependent
threshold component.

* ode: a generic adaptive-step Runge-Kutta-Fehlberg 4(5) integrator used
for the continuous membrane and conductance state.

* ringbuf: float64 delay-line accumulators used to schedule incoming
spike and current events for future update steps.

* examples: these actually compile into runnable programs.
examples/glifneuron drives a single neuron headlessly and writes a TSV
trace of every recordable channel; examples/glifplot is a GUI for
plotting responses and F-I curves interactively.
*/
package glif
