// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"fmt"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/emer/glif/ode"
	"github.com/emer/glif/ringbuf"
	"gonum.org/v1/gonum/floats"
)

// Neuron is one conductance-based generalized leaky integrate-and-fire
// neuron: parameters, dynamical state, cached coefficients, incoming
// event delay lines, and the per-step update driver. Get one with New,
// or call Defaults then Init on a zero value. A Neuron is owned by a
// single goroutine; the enclosing kernel must not overlap calls on the
// same instance.
type Neuron struct {

	// biophysical constants
	Params Params

	// dynamical state
	State State

	// coefficients derived from Params and Dt
	Calib CalibVars `view:"-"`

	// update step size, in ms
	Dt float64 `def:"0.1" min:"0"`

	// most recent injected current drained from the delay line, in pA
	I float64 `inactive:"+"`

	// number of spikes emitted since Init
	SpikeCnt int `inactive:"+"`

	// time the most recent spike was emitted, in ms
	LastSpikeMs float64 `inactive:"+"`

	// right-hand-side coefficients handed to the stepper
	dyn Dyn

	// adaptive stepper for the continuous state
	stepper *ode.RKF45

	// incoming spike weight delay line per receptor port
	spikes []ringbuf.Buf

	// injected current delay line
	currents ringbuf.Buf

	// recordable accessors by name
	recs RecMap
}

// New returns a neuron with default parameters, calibrated and
// initialized to rest.
func New() *Neuron {
	nr := &Neuron{}
	nr.Defaults()
	nr.Init()
	return nr
}

// Defaults sets the default parameters and step size.
func (nr *Neuron) Defaults() {
	nr.Params.Defaults()
	nr.Dt = 0.1
}

// Init validates the parameters, recomputes the cached coefficients,
// resets the state to rest, clears the event delay lines, and rebuilds
// the recordable registry. Call after Defaults, or after changing the
// Params or Dt fields directly.
func (nr *Neuron) Init() error {
	if err := nr.Params.Validate(); err != nil {
		return err
	}
	nr.Calibrate()
	nr.State.Init(&nr.Params)
	nr.SpikeCnt = 0
	nr.LastSpikeMs = 0
	nr.InitBuffers()
	nr.ConfigRecordables()
	return nil
}

// Calibrate recomputes the cached coefficients, right-hand-side
// constants, and stepper for the current parameters and step size.
// The parameters must already be valid. A zero Dt gets the default.
func (nr *Neuron) Calibrate() {
	if nr.Dt <= 0 {
		nr.Dt = 0.1
	}
	nr.Calib.CalibFmParams(&nr.Params, nr.Dt)
	nr.dyn.DynFmParams(&nr.Params)
	if nr.stepper == nil {
		cfg := ode.Config{}
		cfg.Defaults()
		cfg.MaxStep = nr.Dt
		nr.stepper = ode.NewRKF45(cfg)
	} else {
		nr.stepper.Config.MaxStep = nr.Dt
		nr.stepper.Reset()
	}
}

// InitBuffers clears the event delay lines, discarding any undelivered
// events, and sizes one spike line per receptor port.
func (nr *Neuron) InitBuffers() {
	nr.spikes = make([]ringbuf.Buf, nr.Params.NReceptors())
	for p := range nr.spikes {
		nr.spikes[p].Init(1)
	}
	nr.currents.Init(1)
	nr.I = 0
}

// SyncBuffers aligns the spike delay lines with the current receptor
// count after a reconfiguration, keeping pending events on the ports
// that survive.
func (nr *Neuron) SyncBuffers() {
	n := nr.Params.NReceptors()
	for len(nr.spikes) < n {
		nb := ringbuf.Buf{}
		nb.Init(1)
		nr.spikes = append(nr.spikes, nb)
	}
	nr.spikes = nr.spikes[:n]
	if nr.currents.Len() == 0 {
		nr.currents.Init(1)
	}
}

// AddSpike adds an incoming spike of the given weight in nS to receptor
// port p, delivered after delay whole steps (0 = the next Update). An
// out-of-range port is rejected and nothing is delivered.
func (nr *Neuron) AddSpike(p int, weight float64, delay int) error {
	if p < 0 || p >= len(nr.spikes) {
		return fmt.Errorf("glif.Neuron: receptor port %d out of range [0, %d)", p, len(nr.spikes))
	}
	nr.spikes[p].Add(delay, weight)
	return nil
}

// AddCurrent adds an injected current in pA, delivered after delay whole
// steps (0 = the next Update) and lasting that one step.
func (nr *Neuron) AddCurrent(cur float64, delay int) {
	nr.currents.Add(delay, cur)
}

// Update advances the neuron by one step of Dt ms: it drains the events
// due this step, injects spike weights into the conductance rise
// elements, integrates the continuous state (or holds the voltage while
// refractory), advances the threshold components and after-spike
// currents in closed form, and applies the discrete reset when the
// voltage reaches the composite threshold. It reports whether the
// neuron spiked on this step. tm supplies the current time and is
// advanced by the caller afterwards.
func (nr *Neuron) Update(tm *Time) (bool, error) {
	st := &nr.State
	cv := &nr.Calib
	h := nr.Dt

	for p := range nr.spikes {
		if w := nr.spikes[p].Drain(); w != 0 {
			st.Y[DGSynIdx(p)] += w * cv.CondInit[p]
		}
	}
	nr.I = nr.currents.Drain()
	nr.dyn.I = nr.I
	st.AscSum = floats.Dot(cv.AscStable, st.Asc)
	nr.dyn.AscSum = st.AscSum

	spiked := false
	if st.RefSteps > 0 {
		// voltage stays clamped at its post-reset value; the conductance
		// pairs and the voltage threshold component still evolve
		u := st.Y[VMIdx]
		for p, dc := range cv.SynDecay {
			dg := st.Y[DGSynIdx(p)]
			st.Y[GSynIdx(p)] = (st.Y[GSynIdx(p)] + dg*h) * dc
			st.Y[DGSynIdx(p)] = dg * dc
		}
		st.ThrVolt = (st.ThrVolt-cv.ThrVoltRatio*u)/cv.ThrVoltDecayInv + cv.ThrVoltRatio*u
		st.RefSteps--
	} else {
		uOld := st.Y[VMIdx]
		if err := nr.stepper.Evolve(nr.dyn.Derivs, tm.Ms, tm.Ms+h, st.Y); err != nil {
			return false, err
		}
		st.ThrSpike *= cv.ThrSpikeDecay
		floats.Mul(st.Asc, cv.AscDecay)
		st.ThrVolt = (st.ThrVolt-cv.Phi*uOld)/cv.ThrVoltDecayInv + cv.Phi*st.Y[VMIdx]
		st.Thr = st.ThrSpike + st.ThrVolt + (nr.Params.ThInf - nr.Params.EL)
		if st.Y[VMIdx] >= st.Thr {
			spiked = true
			nr.SpikeCnt++
			nr.LastSpikeMs = tm.Ms + h
			st.RefSteps = cv.RefSteps
			st.Y[VMIdx] = cv.VrCoef*st.Thr + cv.VrAdd
			// the decay the threshold and current steps would undergo
			// across the refractory window is applied here in one lump,
			// together with the spike increments
			st.ThrSpike = st.ThrSpike*cv.ThrSpikeRefDecay + cv.ThrSpikeAdd
			for j, rd := range cv.AscRefDecay {
				st.Asc[j] = st.Asc[j]*rd + nr.Params.Asc.Amps[j]
			}
		}
	}
	st.Thr = st.ThrSpike + st.ThrVolt + (nr.Params.ThInf - nr.Params.EL)
	return spiked, nil
}

// SizeReport returns a human-readable summary of the memory the
// neuron's state and delay lines occupy.
func (nr *Neuron) SizeReport() string {
	var b strings.Builder
	stMem := 8 * (len(nr.State.Y) + len(nr.State.Asc))
	bufMem := 8 * nr.currents.Len()
	for p := range nr.spikes {
		bufMem += 8 * nr.spikes[p].Len()
	}
	fmt.Fprintf(&b, "%10s:\t Receptors: %d\t StateMem: %v\n", nr.Calib.Model.String(), nr.Params.NReceptors(), (datasize.ByteSize)(stMem).HumanReadable())
	fmt.Fprintf(&b, "%10s \t DelayLines: %d\t BufMem: %v\n", "", len(nr.spikes)+1, (datasize.ByteSize)(bufMem).HumanReadable())
	return b.String()
}
