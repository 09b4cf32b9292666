// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import (
	"fmt"
	"sort"
)

// Names of the fixed recordable channels. Voltages are reported in
// absolute mV; the per-receptor conductance channels are named by
// GSynName.
const (
	// RecVm is the membrane potential, in mV
	RecVm = "V_m"

	// RecI is the injected current delivered this step, in pA
	RecI = "I"

	// RecAscSum is the step-averaged after-spike current sum, in pA
	RecAscSum = "ASCurrents_sum"

	// RecThr is the composite threshold, in mV
	RecThr = "threshold"

	// RecThrSpike is the spike-dependent threshold component, in mV
	RecThrSpike = "threshold_spike"

	// RecThrVolt is the voltage-dependent threshold component, in mV
	RecThrVolt = "threshold_voltage"
)

// GSynName returns the recordable channel name for the synaptic
// conductance of receptor port p. The names number ports from 1.
func GSynName(p int) string {
	return fmt.Sprintf("g_%d", p+1)
}

// RecordFunc returns the present value of one recordable channel.
type RecordFunc func() float64

// RecMap is a registry of recordable channels by name.
type RecMap map[string]RecordFunc

// ConfigRecordables rebuilds the recordable registry from scratch for
// the current receptor count.
func (nr *Neuron) ConfigRecordables() {
	nr.recs = make(RecMap, 6+nr.Params.NReceptors())
	nr.recs[RecVm] = func() float64 { return nr.State.Y[VMIdx] + nr.Params.EL }
	nr.recs[RecI] = func() float64 { return nr.I }
	nr.recs[RecAscSum] = func() float64 { return nr.State.AscSum }
	nr.recs[RecThr] = func() float64 { return nr.State.Thr + nr.Params.EL }
	nr.recs[RecThrSpike] = func() float64 { return nr.State.ThrSpike }
	nr.recs[RecThrVolt] = func() float64 { return nr.State.ThrVolt }
	for p := 0; p < nr.Params.NReceptors(); p++ {
		nr.addGSynRecordable(p)
	}
}

// SyncRecordables reconciles the conductance channels after the
// receptor count changed from oldn to newn: accessors for new trailing
// ports are added and those for dropped ports removed, leaving all
// other entries untouched.
func (nr *Neuron) SyncRecordables(oldn, newn int) {
	for p := oldn; p < newn; p++ {
		nr.addGSynRecordable(p)
	}
	for p := newn; p < oldn; p++ {
		delete(nr.recs, GSynName(p))
	}
}

func (nr *Neuron) addGSynRecordable(p int) {
	nr.recs[GSynName(p)] = func() float64 { return nr.State.Y[GSynIdx(p)] }
}

// Recordables returns the sorted names of all recordable channels.
func (nr *Neuron) Recordables() []string {
	nms := make([]string, 0, len(nr.recs))
	for nm := range nr.recs {
		nms = append(nms, nm)
	}
	sort.Strings(nms)
	return nms
}

// RecordValue returns the present value of the named recordable
// channel.
func (nr *Neuron) RecordValue(nm string) (float64, error) {
	fn, ok := nr.recs[nm]
	if !ok {
		return 0, fmt.Errorf("glif.Neuron: no recordable channel named %q", nm)
	}
	return fn(), nil
}
