// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

// Layout of the integrated state vector Y: a fixed prefix followed by
// two elements per receptor port.
const (
	// VMIdx is the index of the membrane potential, relative to rest
	VMIdx = 0

	// NFixed is the number of fixed elements ahead of the receptor body
	NFixed = 1

	// NPerReceptor is the number of elements per receptor port
	NPerReceptor = 2
)

// DGSynIdx returns the Y index of the conductance rise element for
// receptor port p.
func DGSynIdx(p int) int {
	return NFixed + NPerReceptor*p
}

// GSynIdx returns the Y index of the conductance element for receptor
// port p.
func GSynIdx(p int) int {
	return NFixed + NPerReceptor*p + 1
}

// StateLen returns the length of the integrated state vector for n
// receptor ports.
func StateLen(n int) int {
	return NFixed + NPerReceptor*n
}

// State is the full dynamical state of one neuron: the continuous
// vector Y handed to the stepper, plus the discrete scalars the update
// driver advances in closed form. All voltages are relative to the
// resting potential.
type State struct {

	// integrated state: Y[0] is the membrane potential relative to rest in mV, followed by a (conductance rise, conductance) pair in nS per receptor port
	Y []float64

	// after-spike currents, in pA
	Asc []float64

	// step-averaged sum of the after-spike currents, in pA, fed to the voltage equation
	AscSum float64 `inactive:"+"`

	// composite threshold relative to rest: ThrSpike + ThrVolt + (ThInf - EL), in mV
	Thr float64 `inactive:"+"`

	// spike-dependent component of the threshold, in mV
	ThrSpike float64 `inactive:"+"`

	// voltage-dependent component of the threshold, in mV
	ThrVolt float64 `inactive:"+"`

	// remaining refractory steps during which the voltage is held
	RefSteps int `inactive:"+"`
}

// Init sets the state to rest for the given parameters: zero relative
// voltage and conductances, zero adaptive threshold components, and
// after-spike currents at their configured initial values.
func (st *State) Init(pr *Params) {
	st.Y = make([]float64, StateLen(pr.NReceptors()))
	st.Asc = cloneFloats(pr.Asc.Init[:pr.NAsc()])
	st.AscSum = 0
	st.Thr = pr.ThInf - pr.EL
	st.ThrSpike = 0
	st.ThrVolt = 0
	st.RefSteps = 0
}

// NReceptors returns the number of receptor ports the state is sized
// for.
func (st *State) NReceptors() int {
	return (len(st.Y) - NFixed) / NPerReceptor
}

// Resize adjusts the receptor body of Y to n receptor ports, keeping
// existing values: trailing pairs are cut on decrease, zero-value pairs
// are appended on increase.
func (st *State) Resize(n int) {
	ln := StateLen(n)
	if ln <= len(st.Y) {
		st.Y = st.Y[:ln]
		return
	}
	ny := make([]float64, ln)
	copy(ny, st.Y)
	st.Y = ny
}

// Clone returns a deep copy of the state, sharing no storage with the
// original. Used for the rollback snapshots taken before applying a
// validated update.
func (st *State) Clone() *State {
	ns := *st
	ns.Y = cloneFloats(st.Y)
	ns.Asc = cloneFloats(st.Asc)
	return &ns
}
