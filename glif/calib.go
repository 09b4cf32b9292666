// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import "math"

// CalibVars are the coefficients derived from the parameters and the
// integration step size, recomputed by Calibrate only when either of
// those changes and immutable in between. Mechanisms that are off get
// neutral values (1 for decay multipliers, 0 for couplings and
// increments), so the update path never tests the mechanism flags.
type CalibVars struct {

	// model variant the mechanism flags select
	Model Model `inactive:"+"`

	// step size the coefficients are valid for, in ms
	Dt float64 `inactive:"+"`

	// refractory duration in whole steps: round(TRef / Dt)
	RefSteps int `inactive:"+"`

	// membrane rate constant G/C, in 1/ms
	Kappa float64 `inactive:"+"`

	// per-step decay of the spike threshold component: exp(-Decay*Dt); 1 when off
	ThrSpikeDecay float64 `inactive:"+"`

	// decay of the spike threshold component across the whole refractory window, applied at spike time; 1 when off
	ThrSpikeRefDecay float64 `inactive:"+"`

	// threshold increment at spike time, in mV; 0 when off
	ThrSpikeAdd float64 `inactive:"+"`

	// inverse of the per-step decay of the voltage threshold component: exp(+Decay*Dt); 1 when off
	ThrVoltDecayInv float64 `inactive:"+"`

	// equilibrium ratio Index/Decay of the voltage threshold component, weighting the voltage while it is clamped; 0 when off
	ThrVoltRatio float64 `inactive:"+"`

	// particular-solution coefficient Index/(Decay-Kappa) of the voltage threshold component, weighting the voltage while it is integrated; 0 when off
	Phi float64 `inactive:"+"`

	// per-step decay of each after-spike current: exp(-Decay*Dt)
	AscDecay []float64 `inactive:"+"`

	// decay of each after-spike current across the whole refractory window including its retained fraction R, applied at spike time
	AscRefDecay []float64 `inactive:"+"`

	// stable coefficients averaging each after-spike current over a step: (1-exp(-Decay*Dt))/(Decay*Dt)
	AscStable []float64 `inactive:"+"`

	// per-step decay of each receptor conductance pair: exp(-Dt/Tau)
	SynDecay []float64 `inactive:"+"`

	// conductance rise increment per unit spike weight: e/Tau, giving a unit peak at elapsed time Tau
	CondInit []float64 `inactive:"+"`

	// threshold coefficient of the voltage reset rule: ResetFrac when the spike threshold component is on, else 0
	VrCoef float64 `inactive:"+"`

	// additive part of the voltage reset rule relative to rest, in mV: ResetAdd when the spike threshold component is on, else VReset
	VrAdd float64 `inactive:"+"`
}

// CalibFmParams computes all derived coefficients for the given
// parameters and step size. The parameters must already be valid.
func (cv *CalibVars) CalibFmParams(pr *Params, dt float64) {
	cv.Model, _ = pr.Model()
	cv.Dt = dt
	cv.RefSteps = int(math.Round(pr.TRef / dt))
	cv.Kappa = pr.G / pr.C
	refWin := float64(cv.RefSteps) * dt

	cv.ThrSpikeDecay = 1
	cv.ThrSpikeRefDecay = 1
	cv.ThrSpikeAdd = 0
	cv.VrCoef = 0
	cv.VrAdd = pr.VReset
	if pr.ThrSpike.On {
		cv.ThrSpikeDecay = math.Exp(-pr.ThrSpike.Decay * dt)
		cv.ThrSpikeRefDecay = math.Exp(-pr.ThrSpike.Decay * refWin)
		cv.ThrSpikeAdd = pr.ThrSpike.Add
		cv.VrCoef = pr.ResetFrac
		cv.VrAdd = pr.ResetAdd
	}

	cv.ThrVoltDecayInv = 1
	cv.ThrVoltRatio = 0
	cv.Phi = 0
	if pr.ThrVolt.On {
		cv.ThrVoltDecayInv = math.Exp(pr.ThrVolt.Decay * dt)
		cv.ThrVoltRatio = pr.ThrVolt.Index / pr.ThrVolt.Decay
		cv.Phi = pr.ThrVolt.Index / (pr.ThrVolt.Decay - cv.Kappa)
	}

	na := pr.NAsc()
	cv.AscDecay = make([]float64, na)
	cv.AscRefDecay = make([]float64, na)
	cv.AscStable = make([]float64, na)
	for j := 0; j < na; j++ {
		k := pr.Asc.Decay[j]
		cv.AscDecay[j] = math.Exp(-k * dt)
		cv.AscRefDecay[j] = pr.Asc.R[j] * math.Exp(-k*refWin)
		cv.AscStable[j] = (1 - math.Exp(-k*dt)) / (k * dt)
	}

	nr := pr.NReceptors()
	cv.SynDecay = make([]float64, nr)
	cv.CondInit = make([]float64, nr)
	for p := 0; p < nr; p++ {
		cv.SynDecay[p] = math.Exp(-dt / pr.Syn.Tau[p])
		cv.CondInit[p] = math.E / pr.Syn.Tau[p]
	}
}
