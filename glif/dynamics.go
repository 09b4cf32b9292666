// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

// Dyn closes over everything the right-hand-side evaluation needs: the
// membrane constants and per-receptor vectors set at calibration time,
// plus the input terms the update driver refreshes once per step. It
// must never read the discrete state, so the stepper sees a pure
// function of (t, y).
type Dyn struct {

	// membrane conductance, in nS
	G float64

	// membrane capacitance, in pF
	C float64

	// reversal potential of each receptor port relative to rest, in mV
	ERevRel []float64

	// rise time constant of each receptor port, in ms
	TauSyn []float64

	// external current injected this step, in pA
	I float64

	// step-averaged after-spike current sum this step, in pA
	AscSum float64
}

// DynFmParams sets the calibration-time coefficients from the
// parameters. The per-step input terms I and AscSum are left alone.
func (dn *Dyn) DynFmParams(pr *Params) {
	dn.G = pr.G
	dn.C = pr.C
	nr := pr.NReceptors()
	dn.ERevRel = make([]float64, nr)
	dn.TauSyn = make([]float64, nr)
	for p := 0; p < nr; p++ {
		dn.ERevRel[p] = pr.Syn.ERev[p] - pr.EL
		dn.TauSyn[p] = pr.Syn.Tau[p]
	}
}

// Derivs is the right-hand side of the neuron ODE system, with the
// ode.Func signature: y[0] is the membrane potential relative to rest,
// followed by a (rise, conductance) pair per receptor port. The voltage
// relaxes toward rest under the leak conductance, driven by the synaptic
// conductances times their driving force plus the injected and
// after-spike currents; each conductance pair is the canonical
// second-order alpha-function realization.
func (dn *Dyn) Derivs(t float64, y, dydt []float64) {
	u := y[VMIdx]
	isyn := 0.0
	for p, erev := range dn.ERevRel {
		isyn += y[GSynIdx(p)] * (u - erev)
	}
	dydt[VMIdx] = (-dn.G*u - isyn + dn.I + dn.AscSum) / dn.C
	for p, tau := range dn.TauSyn {
		dg := y[DGSynIdx(p)]
		dydt[DGSynIdx(p)] = -dg / tau
		dydt[GSynIdx(p)] = dg - y[GSynIdx(p)]/tau
	}
}
