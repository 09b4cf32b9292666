// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"fmt"

	"github.com/goki/ki/kit"
)

//////////////////////////////////////////////////////////////////////////////////////
//  Model

// Model is the generalized leaky integrate-and-fire model variant,
// determined by which of the three optional mechanisms are active.
// Only the five named combinations are defined: a voltage-dependent
// threshold without the other two mechanisms does not exist.
type Model int32

//go:generate stringer -type=Model

var KiT_Model = kit.Enums.AddEnum(ModelN, kit.NotBitFlag, nil)

func (ev Model) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Model) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The generalized leaky integrate-and-fire model variants
const (
	// LIF is the traditional leaky integrate-and-fire model:
	// fixed threshold, fixed reset potential.
	LIF Model = iota

	// LIFR adds biologically defined reset rules: a spike-dependent
	// threshold component and fractional voltage reset.
	LIFR

	// LIFASC adds after-spike currents to the traditional model.
	LIFASC

	// LIFRASC combines the reset rules with after-spike currents.
	LIFRASC

	// LIFRASCA further adds a voltage-dependent threshold component,
	// giving the full adapting model.
	LIFRASCA

	ModelN
)

//////////////////////////////////////////////////////////////////////////////////////
//  Sub-mechanism params

// ThrSpikeParams are the spike-dependent threshold component parameters:
// every spike bumps the threshold up by Add, and the component relaxes
// exponentially back to zero at rate Decay. Activating this component
// also switches the voltage reset rule from the fixed reset potential to
// the fractional rule (see Params.ResetFrac, ResetAdd).
type ThrSpikeParams struct {

	// enable the spike-dependent threshold component and fractional voltage reset
	On bool

	// threshold increment following a spike, in mV
	Add float64 `viewif:"On" def:"0.37" min:"0"`

	// relaxation rate of the spike-dependent threshold component, in 1/ms
	Decay float64 `viewif:"On" def:"0.009" min:"0"`
}

func (ts *ThrSpikeParams) Defaults() {
	ts.Add = 0.37
	ts.Decay = 0.009
}

// ThrVoltParams are the voltage-dependent threshold component parameters:
// the component is driven up by depolarization above rest at rate Index
// and relaxes at rate Decay. It has no spike-time reset and keeps
// evolving through refractory periods. Requires the spike-dependent
// component and after-spike currents to be active as well.
type ThrVoltParams struct {

	// enable the voltage-dependent threshold component
	On bool

	// adaptation index: coupling from voltage above rest to threshold growth, in 1/ms
	Index float64 `viewif:"On" def:"0.005" min:"0"`

	// relaxation rate of the voltage-dependent threshold component, in 1/ms -- must differ from the membrane rate G/C
	Decay float64 `viewif:"On" def:"0.09" min:"0"`
}

func (tv *ThrVoltParams) Defaults() {
	tv.Index = 0.005
	tv.Decay = 0.09
}

// AscParams are the after-spike current parameters: a fixed set of
// current channels, each one rescaled by R and stepped by Amps at spike
// time, decaying exponentially at rate Decay in between. All four
// vectors must have the same length.
type AscParams struct {

	// enable after-spike currents
	On bool

	// initial values of the after-spike currents, in pA
	Init []float64 `viewif:"On"`

	// after-spike current decay rates, in 1/ms -- must be > 0
	Decay []float64 `viewif:"On"`

	// increment added to each after-spike current at spike time, in pA
	Amps []float64 `viewif:"On"`

	// fraction of each after-spike current retained at spike time -- in [0, 1]
	R []float64 `viewif:"On"`
}

func (as *AscParams) Defaults() {
	as.Init = []float64{0, 0}
	as.Decay = []float64{0.003, 0.1}
	as.Amps = []float64{-9.18, -198.94}
	as.R = []float64{1, 1}
}

// SynParams are the per-receptor synaptic conductance parameters: each
// receptor port contributes an alpha-function conductance with its own
// rise time constant and reversal potential. The number of receptor
// ports is the length of these vectors, which must match and hold at
// least one port.
type SynParams struct {

	// alpha-function rise time constant for each receptor port, in ms
	Tau []float64 `min:"0"`

	// reversal potential for each receptor port, in mV
	ERev []float64
}

func (sy *SynParams) Defaults() {
	sy.Tau = []float64{0.2, 2}
	sy.ERev = []float64{0, -85}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Params

// Params are the biophysical constants of a conductance-based
// generalized leaky integrate-and-fire neuron. The defaults are the
// full-model fit of cell 490626718 from the Allen Cell Types Database,
// with voltages in mV, conductances in nS, capacitance in pF, currents
// in pA, and times in ms.
type Params struct {

	// membrane conductance, in nS
	G float64 `def:"9.43" min:"0"`

	// resting membrane potential, in mV
	EL float64 `def:"-78.85"`

	// instantaneous threshold, in mV -- the baseline the adaptive components add to
	ThInf float64 `def:"-51.68"`

	// membrane capacitance, in pF
	C float64 `def:"58.72" min:"0"`

	// refractory duration, in ms
	TRef float64 `def:"3.75" min:"0"`

	// reset potential relative to the resting potential, in mV -- the rule when ThrSpike is off
	VReset float64 `def:"0"`

	// fraction of the threshold-above-rest the voltage resets to after a spike -- the rule when ThrSpike is on
	ResetFrac float64 `viewif:"ThrSpike.On" def:"0.2"`

	// offset added to the post-spike reset voltage, in mV -- the rule when ThrSpike is on
	ResetAdd float64 `viewif:"ThrSpike.On" def:"18.51"`

	// spike-dependent threshold component
	ThrSpike ThrSpikeParams `view:"inline"`

	// voltage-dependent threshold component
	ThrVolt ThrVoltParams `view:"inline"`

	// after-spike currents
	Asc AscParams `view:"inline"`

	// per-receptor synaptic conductances
	Syn SynParams `view:"inline"`
}

// Defaults sets the full adapting model (LIFRASCA) with the reference
// cell fit values.
func (pr *Params) Defaults() {
	pr.G = 9.43
	pr.EL = -78.85
	pr.ThInf = -51.68
	pr.C = 58.72
	pr.TRef = 3.75
	pr.VReset = 0
	pr.ResetFrac = 0.2
	pr.ResetAdd = 18.51
	pr.ThrSpike.On = true
	pr.ThrSpike.Defaults()
	pr.ThrVolt.On = true
	pr.ThrVolt.Defaults()
	pr.Asc.On = true
	pr.Asc.Defaults()
	pr.Syn.Defaults()
}

// Update is called after parameter changes -- all derived coefficients
// also depend on the step size and live in CalibVars, so this currently
// has nothing to compute.
func (pr *Params) Update() {
}

// NReceptors returns the number of synaptic receptor ports, which is
// the length of the Syn.Tau vector.
func (pr *Params) NReceptors() int {
	return len(pr.Syn.Tau)
}

// NAsc returns the number of after-spike current channels: the length
// of the Asc vectors when that mechanism is on, else 0.
func (pr *Params) NAsc() int {
	if !pr.Asc.On {
		return 0
	}
	return len(pr.Asc.Decay)
}

// Model returns the model variant selected by the three mechanism
// flags, or an error for the undefined combinations (a voltage-dependent
// threshold requires both other mechanisms).
func (pr *Params) Model() (Model, error) {
	switch {
	case !pr.ThrSpike.On && !pr.Asc.On && !pr.ThrVolt.On:
		return LIF, nil
	case pr.ThrSpike.On && !pr.Asc.On && !pr.ThrVolt.On:
		return LIFR, nil
	case !pr.ThrSpike.On && pr.Asc.On && !pr.ThrVolt.On:
		return LIFASC, nil
	case pr.ThrSpike.On && pr.Asc.On && !pr.ThrVolt.On:
		return LIFRASC, nil
	case pr.ThrSpike.On && pr.Asc.On && pr.ThrVolt.On:
		return LIFRASCA, nil
	}
	return ModelN, fmt.Errorf("glif.Params: mechanism flags (spike threshold: %v, after-spike currents: %v, voltage threshold: %v) do not select a defined model", pr.ThrSpike.On, pr.Asc.On, pr.ThrVolt.On)
}

// SetModel sets the three mechanism flags to select the given model
// variant.
func (pr *Params) SetModel(md Model) {
	pr.ThrSpike.On = md == LIFR || md == LIFRASC || md == LIFRASCA
	pr.Asc.On = md == LIFASC || md == LIFRASC || md == LIFRASCA
	pr.ThrVolt.On = md == LIFRASCA
}

// Validate checks all parameter invariants, returning the first
// violation: the mechanism flags must select one of the five defined
// models, the four after-spike current vectors must have equal length,
// the two per-receptor vectors must have equal non-zero length, and
// every rate or duration that is divided by or exponentiated must be in
// range.
func (pr *Params) Validate() error {
	if _, err := pr.Model(); err != nil {
		return err
	}
	if pr.G <= 0 {
		return fmt.Errorf("glif.Params: membrane conductance G must be > 0, got %g", pr.G)
	}
	if pr.C <= 0 {
		return fmt.Errorf("glif.Params: membrane capacitance C must be > 0, got %g", pr.C)
	}
	if pr.TRef < 0 {
		return fmt.Errorf("glif.Params: refractory duration TRef must be >= 0, got %g", pr.TRef)
	}
	if pr.ThrSpike.On && pr.ThrSpike.Decay < 0 {
		return fmt.Errorf("glif.Params: ThrSpike.Decay must be >= 0, got %g", pr.ThrSpike.Decay)
	}
	if pr.ThrVolt.On {
		if pr.ThrVolt.Decay <= 0 {
			return fmt.Errorf("glif.Params: ThrVolt.Decay must be > 0, got %g", pr.ThrVolt.Decay)
		}
		if kappa := pr.G / pr.C; pr.ThrVolt.Decay == kappa {
			return fmt.Errorf("glif.Params: ThrVolt.Decay must differ from the membrane rate G/C = %g", kappa)
		}
	}
	if pr.Asc.On {
		na := len(pr.Asc.Decay)
		if len(pr.Asc.Init) != na || len(pr.Asc.Amps) != na || len(pr.Asc.R) != na {
			return fmt.Errorf("glif.Params: after-spike current vectors must have equal length: Init: %d, Decay: %d, Amps: %d, R: %d", len(pr.Asc.Init), na, len(pr.Asc.Amps), len(pr.Asc.R))
		}
		if na == 0 {
			return fmt.Errorf("glif.Params: after-spike currents are on but the Asc vectors are empty")
		}
		for j, k := range pr.Asc.Decay {
			if k <= 0 {
				return fmt.Errorf("glif.Params: Asc.Decay[%d] must be > 0, got %g", j, k)
			}
		}
		for j, r := range pr.Asc.R {
			if r < 0 || r > 1 {
				return fmt.Errorf("glif.Params: Asc.R[%d] must be in [0, 1], got %g", j, r)
			}
		}
	}
	if len(pr.Syn.Tau) != len(pr.Syn.ERev) {
		return fmt.Errorf("glif.Params: Syn.Tau and Syn.ERev must have equal length: %d != %d", len(pr.Syn.Tau), len(pr.Syn.ERev))
	}
	if len(pr.Syn.Tau) == 0 {
		return fmt.Errorf("glif.Params: at least one synaptic receptor port is required")
	}
	for p, tau := range pr.Syn.Tau {
		if tau <= 0 {
			return fmt.Errorf("glif.Params: Syn.Tau[%d] must be > 0, got %g", p, tau)
		}
	}
	return nil
}

// Clone returns a deep copy of the parameters, sharing no vector
// storage with the original.
func (pr *Params) Clone() *Params {
	np := *pr
	np.Asc.Init = cloneFloats(pr.Asc.Init)
	np.Asc.Decay = cloneFloats(pr.Asc.Decay)
	np.Asc.Amps = cloneFloats(pr.Asc.Amps)
	np.Asc.R = cloneFloats(pr.Asc.R)
	np.Syn.Tau = cloneFloats(pr.Syn.Tau)
	np.Syn.ERev = cloneFloats(pr.Syn.ERev)
	return &np
}

func cloneFloats(vals []float64) []float64 {
	if vals == nil {
		return nil
	}
	nv := make([]float64, len(vals))
	copy(nv, vals)
	return nv
}
