// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"math"
	"testing"
)

const difTol = 1.0e-12

// stepN advances the neuron n steps with no input, returning the number
// of spikes emitted.
func stepN(t *testing.T, nr *Neuron, tm *Time, n int) int {
	t.Helper()
	spikes := 0
	for i := 0; i < n; i++ {
		sp, err := nr.Update(tm)
		if err != nil {
			t.Fatalf("update error at step %d: %v", i, err)
		}
		if sp {
			spikes++
		}
		tm.StepInc()
	}
	return spikes
}

// TestRestStaysAtRest checks that with no input the state stays exactly
// at rest: the right-hand side is identically zero there, so even the
// adaptive stepper must not move it.
func TestRestStaysAtRest(t *testing.T) {
	for _, md := range []Model{LIF, LIFRASCA} {
		nr := &Neuron{}
		nr.Defaults()
		nr.Params.SetModel(md)
		if err := nr.Init(); err != nil {
			t.Fatalf("%v: init error: %v", md, err)
		}
		tm := NewTime()
		if n := stepN(t, nr, tm, 100); n != 0 {
			t.Errorf("%v: spikes at rest: %d", md, n)
		}
		for i, v := range nr.State.Y {
			if v != 0 {
				t.Errorf("%v: Y[%d] drifted from rest: %v", md, i, v)
			}
		}
		vm, err := nr.RecordValue(RecVm)
		if err != nil {
			t.Fatal(err)
		}
		if vm != nr.Params.EL {
			t.Errorf("%v: resting potential: %v, expected %v", md, vm, nr.Params.EL)
		}
		if nr.State.Thr != nr.Params.ThInf-nr.Params.EL {
			t.Errorf("%v: resting threshold: %v, expected %v", md, nr.State.Thr, nr.Params.ThInf-nr.Params.EL)
		}
	}
}

// TestAlphaPeak checks the synaptic conductance response to a single
// spike of weight 1 against the analytic alpha function: rise to a peak
// of exactly the weight at one time constant after delivery.
func TestAlphaPeak(t *testing.T) {
	tau := 2.0
	nr := &Neuron{}
	nr.Defaults()
	nr.Params.SetModel(LIF)
	nr.Params.Syn.Tau = []float64{tau}
	nr.Params.Syn.ERev = []float64{0}
	nr.Dt = 0.125
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt

	if err := nr.AddSpike(0, 1.0, 0); err != nil {
		t.Fatal(err)
	}
	gs := make([]float64, 24)
	for i := range gs {
		sp, err := nr.Update(tm)
		if err != nil {
			t.Fatalf("update error at step %d: %v", i, err)
		}
		if sp {
			t.Fatalf("unexpected spike at step %d", i)
		}
		tm.StepInc()
		g, err := nr.RecordValue(GSynName(0))
		if err != nil {
			t.Fatal(err)
		}
		gs[i] = g
	}

	for i, g := range gs {
		el := float64(i+1) * nr.Dt
		cor := (el / tau) * math.Exp(1-el/tau)
		if dif := math.Abs(g - cor); dif > 1.0e-4 {
			t.Errorf("g err: idx: %v, g: %v, cor: %v, dif: %v", i, g, cor, dif)
		}
	}
	// elapsed time hits tau exactly at the 16th step
	if dif := math.Abs(gs[15] - 1.0); dif > 1.0e-3 {
		t.Errorf("peak: %v, expected 1 within stepper tolerance, dif: %v", gs[15], dif)
	}
	if gs[14] >= gs[15] || gs[16] >= gs[15] {
		t.Errorf("peak not at tau: g[14]: %v, g[15]: %v, g[16]: %v", gs[14], gs[15], gs[16])
	}
}

// TestLIFSpiking drives the traditional model with a sustained current:
// the voltage must reset exactly to the reset potential at each spike,
// hold there for the full refractory window, and fire with a constant
// inter-spike interval.
func TestLIFSpiking(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Params.SetModel(LIF)
	nr.Params.TRef = 2.0
	nr.Dt = 0.25
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt

	nsteps := 200
	vms := make([]float64, nsteps)
	var spikeSteps []int
	for i := 0; i < nsteps; i++ {
		nr.AddCurrent(400, 0)
		sp, err := nr.Update(tm)
		if err != nil {
			t.Fatalf("update error at step %d: %v", i, err)
		}
		if sp {
			spikeSteps = append(spikeSteps, i)
			if nr.State.RefSteps != 8 {
				t.Errorf("RefSteps after spike: %d, expected 8", nr.State.RefSteps)
			}
			if dif := math.Abs(nr.LastSpikeMs - float64(i+1)*nr.Dt); dif > difTol {
				t.Errorf("LastSpikeMs: %v, expected %v", nr.LastSpikeMs, float64(i+1)*nr.Dt)
			}
		}
		vms[i] = nr.State.Y[VMIdx]
		tm.StepInc()
	}
	if len(spikeSteps) < 3 {
		t.Fatalf("spikes: %d, expected at least 3", len(spikeSteps))
	}
	if nr.SpikeCnt != len(spikeSteps) {
		t.Errorf("SpikeCnt: %d, expected %d", nr.SpikeCnt, len(spikeSteps))
	}

	// the voltage resets to exactly 0 relative to rest and is held there
	// for the 8 refractory steps, then integration resumes upward
	for _, s := range spikeSteps {
		if s+9 >= nsteps {
			break
		}
		for k := s; k <= s+8; k++ {
			if vms[k] != 0 {
				t.Errorf("voltage not held at reset: step: %d, vm: %v", k, vms[k])
			}
		}
		if vms[s+9] <= 0 {
			t.Errorf("integration did not resume after hold: step: %d, vm: %v", s+9, vms[s+9])
		}
	}
	for k := 1; k < len(spikeSteps); k++ {
		for _, s := range spikeSteps[:k] {
			if spikeSteps[k]-s <= 8 && spikeSteps[k] != s {
				t.Errorf("spike inside refractory window: steps %d and %d", s, spikeSteps[k])
			}
		}
	}

	// from reset under a constant current the trajectory repeats, so the
	// inter-spike intervals are all equal
	isi := spikeSteps[1] - spikeSteps[0]
	for k := 2; k < len(spikeSteps); k++ {
		if spikeSteps[k]-spikeSteps[k-1] != isi {
			t.Errorf("isi err: idx: %v, isi: %v, expected: %v", k, spikeSteps[k]-spikeSteps[k-1], isi)
		}
	}

	// fixed threshold throughout
	if nr.State.Thr != nr.Params.ThInf-nr.Params.EL {
		t.Errorf("threshold moved: %v, expected %v", nr.State.Thr, nr.Params.ThInf-nr.Params.EL)
	}
}

// TestLIFSteadyState drives the traditional model with a subthreshold
// constant current: the voltage must rise monotonically to the I/G
// steady state without ever spiking.
func TestLIFSteadyState(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Params.SetModel(LIF)
	nr.Dt = 0.25
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt

	amp := 100.0
	prev := 0.0
	for i := 0; i < 600; i++ {
		nr.AddCurrent(amp, 0)
		sp, err := nr.Update(tm)
		if err != nil {
			t.Fatalf("update error at step %d: %v", i, err)
		}
		if sp {
			t.Fatalf("spike from a subthreshold current at step %d", i)
		}
		tm.StepInc()
		vm := nr.State.Y[VMIdx]
		if vm < prev-1.0e-9 {
			t.Errorf("vm err: idx: %v, vm: %v, below previous: %v", i, vm, prev)
		}
		prev = vm
	}
	cor := amp / nr.Params.G
	if dif := math.Abs(prev - cor); dif > 1.0e-6 {
		t.Errorf("steady state: %v, cor: %v, dif: %v", prev, cor, dif)
	}
}

// TestThrSpikeDecay checks the per-step relaxation of the
// spike-dependent threshold component against the closed form.
func TestThrSpikeDecay(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Params.SetModel(LIFR)
	nr.Dt = 0.5
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt

	nr.State.ThrSpike = 1.0
	dec := math.Exp(-nr.Params.ThrSpike.Decay * nr.Dt)
	want := 1.0
	for i := 0; i < 10; i++ {
		if _, err := nr.Update(tm); err != nil {
			t.Fatal(err)
		}
		tm.StepInc()
		want *= dec
		if dif := math.Abs(nr.State.ThrSpike - want); dif > difTol {
			t.Errorf("thr spike err: idx: %v, val: %v, cor: %v, dif: %v", i, nr.State.ThrSpike, want, dif)
		}
		cor := want + (nr.Params.ThInf - nr.Params.EL)
		if dif := math.Abs(nr.State.Thr - cor); dif > difTol {
			t.Errorf("thr err: idx: %v, val: %v, cor: %v, dif: %v", i, nr.State.Thr, cor, dif)
		}
	}
}

// TestFracReset checks the biologically defined reset rule: the voltage
// restarts at a fraction of the threshold at spike time plus an offset,
// and the spike-dependent component jumps by its increment.
func TestFracReset(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Params.SetModel(LIFR)
	nr.Params.TRef = 0.5
	nr.Dt = 0.25
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt
	pr := &nr.Params

	nr.State.Y[VMIdx] = 40
	sp, err := nr.Update(tm)
	if err != nil {
		t.Fatal(err)
	}
	if !sp {
		t.Fatalf("expected a spike from a suprathreshold voltage")
	}
	cor := pr.ResetFrac*(pr.ThInf-pr.EL) + pr.ResetAdd
	if dif := math.Abs(nr.State.Y[VMIdx] - cor); dif > difTol {
		t.Errorf("reset voltage: %v, cor: %v, dif: %v", nr.State.Y[VMIdx], cor, dif)
	}
	if nr.State.ThrSpike != pr.ThrSpike.Add {
		t.Errorf("thr spike component: %v, expected %v", nr.State.ThrSpike, pr.ThrSpike.Add)
	}
	if nr.State.RefSteps != 2 {
		t.Errorf("RefSteps: %d, expected 2", nr.State.RefSteps)
	}
}

// TestThrVoltRefractory checks the voltage-dependent threshold component
// and the conductance pairs across one held step: the voltage is
// clamped, the component relaxes toward its equilibrium for the clamped
// voltage, and the conductances advance by their exact propagator.
func TestThrVoltRefractory(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Dt = 0.5
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt
	pr := &nr.Params
	st := &nr.State

	st.Y[VMIdx] = 10
	st.Y[DGSynIdx(0)] = 1
	st.ThrVolt = 0.2
	st.Asc[0] = -7
	st.RefSteps = 3

	sp, err := nr.Update(tm)
	if err != nil {
		t.Fatal(err)
	}
	if sp {
		t.Fatalf("spike during a held step")
	}
	if st.Y[VMIdx] != 10 {
		t.Errorf("held voltage moved: %v", st.Y[VMIdx])
	}
	if st.RefSteps != 2 {
		t.Errorf("RefSteps: %d, expected 2", st.RefSteps)
	}

	ratio := pr.ThrVolt.Index / pr.ThrVolt.Decay
	inv := math.Exp(pr.ThrVolt.Decay * nr.Dt)
	cor := (0.2-ratio*10)/inv + ratio*10
	if dif := math.Abs(st.ThrVolt - cor); dif > difTol {
		t.Errorf("thr volt: %v, cor: %v, dif: %v", st.ThrVolt, cor, dif)
	}

	dc := math.Exp(-nr.Dt / pr.Syn.Tau[0])
	corG := (0 + 1*nr.Dt) * dc
	corDG := 1 * dc
	if dif := math.Abs(st.Y[GSynIdx(0)] - corG); dif > difTol {
		t.Errorf("held g: %v, cor: %v, dif: %v", st.Y[GSynIdx(0)], corG, dif)
	}
	if dif := math.Abs(st.Y[DGSynIdx(0)] - corDG); dif > difTol {
		t.Errorf("held dg: %v, cor: %v, dif: %v", st.Y[DGSynIdx(0)], corDG, dif)
	}

	// the spike component and the after-spike currents hold through the
	// window: their whole-window decay was applied at spike time
	if st.ThrSpike != 0 {
		t.Errorf("thr spike moved during hold: %v", st.ThrSpike)
	}
	if st.Asc[0] != -7 {
		t.Errorf("after-spike current moved during hold: %v", st.Asc[0])
	}
}

// TestThrVoltIntegrating checks the voltage-dependent threshold
// component across one integrating step against its closed form, which
// is anchored at the realized voltage endpoints.
func TestThrVoltIntegrating(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Dt = 0.25
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt
	pr := &nr.Params
	st := &nr.State

	st.Y[VMIdx] = 10
	st.ThrVolt = 0.3
	uOld := st.Y[VMIdx]
	sp, err := nr.Update(tm)
	if err != nil {
		t.Fatal(err)
	}
	if sp {
		t.Fatalf("unexpected spike")
	}
	uNew := st.Y[VMIdx]
	if uNew >= uOld || uNew <= 9 {
		t.Errorf("leak step out of range: %v", uNew)
	}

	phi := pr.ThrVolt.Index / (pr.ThrVolt.Decay - pr.G/pr.C)
	inv := math.Exp(pr.ThrVolt.Decay * nr.Dt)
	cor := (0.3-phi*uOld)/inv + phi*uNew
	if dif := math.Abs(st.ThrVolt - cor); dif > difTol {
		t.Errorf("thr volt: %v, cor: %v, dif: %v", st.ThrVolt, cor, dif)
	}
}

// TestPathologicalSpiking sets a reset rule that lands the voltage above
// the bumped threshold, which must simply spike on every step once
// started, with no refractory hold.
func TestPathologicalSpiking(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Params.TRef = 0
	nr.Params.ResetFrac = 1.0
	nr.Params.ResetAdd = 100
	nr.Dt = 0.25
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt

	nr.State.Y[VMIdx] = 40
	if n := stepN(t, nr, tm, 50); n != 50 {
		t.Errorf("spikes: %d, expected one per step", n)
	}
	if nr.SpikeCnt != 50 {
		t.Errorf("SpikeCnt: %d, expected 50", nr.SpikeCnt)
	}
	if nr.State.RefSteps != 0 {
		t.Errorf("RefSteps: %d, expected 0 with a zero refractory duration", nr.State.RefSteps)
	}
	if nr.State.ThrSpike < 15 {
		t.Errorf("spike threshold component after 50 spikes: %v, expected above 15", nr.State.ThrSpike)
	}
}

// TestAscSpikeReset checks the after-spike current bookkeeping at spike
// time: the whole-window decay times the retained fraction, plus the
// amplitude, then a hold through the refractory window.
func TestAscSpikeReset(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Params.SetModel(LIFASC)
	nr.Params.TRef = 2.0
	nr.Params.Asc.Init = []float64{-5}
	nr.Params.Asc.Decay = []float64{0.5}
	nr.Params.Asc.Amps = []float64{-20}
	nr.Params.Asc.R = []float64{0.75}
	nr.Dt = 0.5
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()
	tm.Dt = nr.Dt
	st := &nr.State

	if st.Asc[0] != -5 {
		t.Fatalf("initial after-spike current: %v, expected -5", st.Asc[0])
	}

	st.Y[VMIdx] = 35
	sp, err := nr.Update(tm)
	if err != nil {
		t.Fatal(err)
	}
	tm.StepInc()
	if !sp {
		t.Fatalf("expected a spike from a suprathreshold voltage")
	}
	if st.RefSteps != 4 {
		t.Errorf("RefSteps: %d, expected 4", st.RefSteps)
	}
	if st.Y[VMIdx] != 0 {
		t.Errorf("reset voltage: %v, expected 0", st.Y[VMIdx])
	}

	// per-step decay on the integrating step, then the spike lump:
	// whole-window decay of 0.5/ms over 2 ms times the retained 0.75,
	// plus the -20 amplitude
	a := -5.0 * math.Exp(-0.25)
	a = a*(0.75*math.Exp(-1.0)) - 20
	if dif := math.Abs(st.Asc[0] - a); dif > difTol {
		t.Errorf("after-spike current at spike: %v, cor: %v, dif: %v", st.Asc[0], a, dif)
	}

	lump := st.Asc[0]
	for i := 0; i < 4; i++ {
		sp, err := nr.Update(tm)
		if err != nil {
			t.Fatal(err)
		}
		tm.StepInc()
		if sp {
			t.Errorf("spike during hold step %d", i)
		}
		if st.Asc[0] != lump {
			t.Errorf("after-spike current moved during hold step %d: %v", i, st.Asc[0])
		}
	}

	// integration resumes: per-step decay applies again
	if _, err := nr.Update(tm); err != nil {
		t.Fatal(err)
	}
	cor := lump * math.Exp(-0.25)
	if dif := math.Abs(st.Asc[0] - cor); dif > difTol {
		t.Errorf("after-spike current after hold: %v, cor: %v, dif: %v", st.Asc[0], cor, dif)
	}
}

// TestDelayLines checks event scheduling: a spike with delay d first
// affects the state on update d+1, and currents delivered on the same
// step accumulate.
func TestDelayLines(t *testing.T) {
	nr := &Neuron{}
	nr.Defaults()
	nr.Params.SetModel(LIF)
	nr.Params.Syn.Tau = []float64{2.0}
	nr.Params.Syn.ERev = []float64{0}
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm := NewTime()

	if err := nr.AddSpike(1, 1, 0); err == nil {
		t.Errorf("expected an error for an out-of-range receptor port")
	}
	if err := nr.AddSpike(-1, 1, 0); err == nil {
		t.Errorf("expected an error for a negative receptor port")
	}

	if err := nr.AddSpike(0, 1.0, 3); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := nr.Update(tm); err != nil {
			t.Fatal(err)
		}
		tm.StepInc()
		if nr.State.Y[DGSynIdx(0)] != 0 || nr.State.Y[GSynIdx(0)] != 0 {
			t.Errorf("conductance moved before delivery: step: %d, dg: %v, g: %v", i, nr.State.Y[DGSynIdx(0)], nr.State.Y[GSynIdx(0)])
		}
	}
	if _, err := nr.Update(tm); err != nil {
		t.Fatal(err)
	}
	tm.StepInc()
	if nr.State.Y[GSynIdx(0)] <= 0 {
		t.Errorf("conductance flat after delivery: %v", nr.State.Y[GSynIdx(0)])
	}

	nr.AddCurrent(100, 1)
	nr.AddCurrent(50, 1)
	if _, err := nr.Update(tm); err != nil {
		t.Fatal(err)
	}
	tm.StepInc()
	if nr.I != 0 {
		t.Errorf("current delivered early: %v", nr.I)
	}
	if _, err := nr.Update(tm); err != nil {
		t.Fatal(err)
	}
	tm.StepInc()
	if nr.I != 150 {
		t.Errorf("accumulated current: %v, expected 150", nr.I)
	}
	iv, err := nr.RecordValue(RecI)
	if err != nil {
		t.Fatal(err)
	}
	if iv != 150 {
		t.Errorf("recorded current: %v, expected 150", iv)
	}
	if _, err := nr.Update(tm); err != nil {
		t.Fatal(err)
	}
	tm.StepInc()
	if nr.I != 0 {
		t.Errorf("current did not clear after delivery: %v", nr.I)
	}

	// Init discards anything still scheduled
	nr.AddCurrent(999, 2)
	if err := nr.Init(); err != nil {
		t.Fatal(err)
	}
	tm.Reset()
	for i := 0; i < 3; i++ {
		if _, err := nr.Update(tm); err != nil {
			t.Fatal(err)
		}
		tm.StepInc()
		if nr.I != 0 {
			t.Errorf("scheduled current survived Init: step: %d, i: %v", i, nr.I)
		}
	}
}
