// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glif

import "fmt"

// Status dictionary keys, as reported by GetStatus and accepted by
// SetStatus.
const (
	StatVm           = "V_m"
	StatVth          = "V_th"
	StatG            = "g"
	StatEL           = "E_L"
	StatCm           = "C_m"
	StatTRef         = "t_ref"
	StatVReset       = "V_reset"
	StatThSpikeAdd   = "th_spike_add"
	StatThSpikeDecay = "th_spike_decay"
	StatVResetFrac   = "voltage_reset_fraction"
	StatVResetAdd    = "voltage_reset_add"
	StatAscInit      = "asc_init"
	StatAscDecay     = "asc_decay"
	StatAscAmps      = "asc_amps"
	StatAscR         = "asc_r"
	StatThVoltIndex  = "th_voltage_index"
	StatThVoltDecay  = "th_voltage_decay"
	StatTauSyn       = "tau_syn"
	StatERev         = "E_rev"
	StatSpikeThrFlag = "spike_dependent_threshold"
	StatAscFlag      = "after_spike_currents"
	StatVoltThrFlag  = "adapting_threshold"
	StatModel        = "model"
	StatRecordables  = "recordables"
)

// statKeys is the complete set of keys GetStatus emits and SetStatus
// accepts.
var statKeys = map[string]bool{
	StatVm: true, StatVth: true, StatG: true, StatEL: true,
	StatCm: true, StatTRef: true, StatVReset: true,
	StatThSpikeAdd: true, StatThSpikeDecay: true,
	StatVResetFrac: true, StatVResetAdd: true,
	StatAscInit: true, StatAscDecay: true, StatAscAmps: true, StatAscR: true,
	StatThVoltIndex: true, StatThVoltDecay: true,
	StatTauSyn: true, StatERev: true,
	StatSpikeThrFlag: true, StatAscFlag: true, StatVoltThrFlag: true,
	StatModel: true, StatRecordables: true,
}

//////////////////////////////////////////////////////////////////////////////////////
//  Value helpers

// statFloat reads a float value for the given key into v if the key is
// present, reporting whether it was.
func statFloat(d map[string]interface{}, key string, v *float64) (bool, error) {
	iv, ok := d[key]
	if !ok {
		return false, nil
	}
	switch x := iv.(type) {
	case float64:
		*v = x
	case float32:
		*v = float64(x)
	case int:
		*v = float64(x)
	default:
		return false, fmt.Errorf("glif: status key %q: expected a number, got %T", key, iv)
	}
	return true, nil
}

// statFloats reads a float vector for the given key into v if the key
// is present, copying the values so the dictionary can be reused.
func statFloats(d map[string]interface{}, key string, v *[]float64) (bool, error) {
	iv, ok := d[key]
	if !ok {
		return false, nil
	}
	switch x := iv.(type) {
	case []float64:
		*v = cloneFloats(x)
	case []interface{}:
		nv := make([]float64, len(x))
		for i, ev := range x {
			f, fok := ev.(float64)
			if !fok {
				return false, fmt.Errorf("glif: status key %q: element %d: expected a number, got %T", key, i, ev)
			}
			nv[i] = f
		}
		*v = nv
	default:
		return false, fmt.Errorf("glif: status key %q: expected a float vector, got %T", key, iv)
	}
	return true, nil
}

// statBool reads a bool value for the given key if present.
func statBool(d map[string]interface{}, key string) (val, present bool, err error) {
	iv, ok := d[key]
	if !ok {
		return false, false, nil
	}
	bv, bok := iv.(bool)
	if !bok {
		return false, false, fmt.Errorf("glif: status key %q: expected a bool, got %T", key, iv)
	}
	return bv, true, nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Params / State from dict

// setFromDict overlays values from the status dictionary onto the
// parameters, re-deriving the mechanism flags from what is populated:
// providing any spike-threshold or reset-rule parameter turns the
// spike-dependent component on, providing a voltage-threshold parameter
// turns that component on, and after-spike currents follow the
// emptiness of their vectors. The returned delta is the change in
// resting potential, for re-basing relative state.
func (pr *Params) setFromDict(d map[string]interface{}) (float64, error) {
	elOld := pr.EL
	if _, err := statFloat(d, StatG, &pr.G); err != nil {
		return 0, err
	}
	if _, err := statFloat(d, StatEL, &pr.EL); err != nil {
		return 0, err
	}
	if _, err := statFloat(d, StatVth, &pr.ThInf); err != nil {
		return 0, err
	}
	if _, err := statFloat(d, StatCm, &pr.C); err != nil {
		return 0, err
	}
	if _, err := statFloat(d, StatTRef, &pr.TRef); err != nil {
		return 0, err
	}
	if _, err := statFloat(d, StatVReset, &pr.VReset); err != nil {
		return 0, err
	}

	tson := false
	for _, kv := range []struct {
		key string
		v   *float64
	}{
		{StatThSpikeAdd, &pr.ThrSpike.Add},
		{StatThSpikeDecay, &pr.ThrSpike.Decay},
		{StatVResetFrac, &pr.ResetFrac},
		{StatVResetAdd, &pr.ResetAdd},
	} {
		ok, err := statFloat(d, kv.key, kv.v)
		if err != nil {
			return 0, err
		}
		tson = tson || ok
	}
	if tson {
		pr.ThrSpike.On = true
	}

	tvon := false
	if ok, err := statFloat(d, StatThVoltIndex, &pr.ThrVolt.Index); err != nil {
		return 0, err
	} else if ok {
		tvon = true
	}
	if ok, err := statFloat(d, StatThVoltDecay, &pr.ThrVolt.Decay); err != nil {
		return 0, err
	} else if ok {
		tvon = true
	}
	if tvon {
		pr.ThrVolt.On = true
	}

	ascSet := false
	for _, kv := range []struct {
		key string
		v   *[]float64
	}{
		{StatAscInit, &pr.Asc.Init},
		{StatAscDecay, &pr.Asc.Decay},
		{StatAscAmps, &pr.Asc.Amps},
		{StatAscR, &pr.Asc.R},
	} {
		ok, err := statFloats(d, kv.key, kv.v)
		if err != nil {
			return 0, err
		}
		ascSet = ascSet || ok
	}
	if ascSet {
		pr.Asc.On = len(pr.Asc.Decay) > 0
	}

	if _, err := statFloats(d, StatTauSyn, &pr.Syn.Tau); err != nil {
		return 0, err
	}
	if _, err := statFloats(d, StatERev, &pr.Syn.ERev); err != nil {
		return 0, err
	}

	// the flag and model keys are derived from the above; a provided
	// value must agree with what the populated parameters select
	for _, fv := range []struct {
		key string
		on  bool
	}{
		{StatSpikeThrFlag, pr.ThrSpike.On},
		{StatAscFlag, pr.Asc.On},
		{StatVoltThrFlag, pr.ThrVolt.On},
	} {
		bv, ok, err := statBool(d, fv.key)
		if err != nil {
			return 0, err
		}
		if ok && bv != fv.on {
			return 0, fmt.Errorf("glif: status key %q is derived from the populated mechanism parameters and cannot be set to %v", fv.key, bv)
		}
	}
	if iv, ok := d[StatModel]; ok {
		mstr, sok := iv.(string)
		if !sok {
			return 0, fmt.Errorf("glif: status key %q: expected a string, got %T", StatModel, iv)
		}
		md, err := pr.Model()
		if err != nil {
			return 0, err
		}
		if mstr != md.String() {
			return 0, fmt.Errorf("glif: status key %q is derived from the mechanism flags, which select %s, and cannot be set to %q", StatModel, md, mstr)
		}
	}
	return pr.EL - elOld, nil
}

// setFromDict applies state values from the status dictionary against
// the new parameters: an absolute V_m if provided, otherwise a shift in
// resting potential re-bases the stored relative voltage. The receptor
// body is resized to the new count, and the after-spike currents are
// re-initialized when their configuration changed.
func (st *State) setFromDict(d map[string]interface{}, pr *Params, deltaEL float64) error {
	vm := 0.0
	ok, err := statFloat(d, StatVm, &vm)
	if err != nil {
		return err
	}
	if ok {
		st.Y[VMIdx] = vm - pr.EL
	} else {
		st.Y[VMIdx] -= deltaEL
	}
	st.Resize(pr.NReceptors())
	if _, iok := d[StatAscInit]; iok || len(st.Asc) != pr.NAsc() {
		st.Asc = cloneFloats(pr.Asc.Init[:pr.NAsc()])
	}
	st.Thr = st.ThrSpike + st.ThrVolt + (pr.ThInf - pr.EL)
	return nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Neuron status

// GetStatus returns the full parameter and state dictionary, with
// voltages in absolute mV. Parameters of inactive optional mechanisms
// are left out (that is what marks them inactive), and vector values
// are copies, so mutating the returned map never touches the neuron.
// The result round-trips through SetStatus.
func (nr *Neuron) GetStatus() map[string]interface{} {
	pr := &nr.Params
	md, _ := pr.Model()
	na := pr.NAsc()
	d := map[string]interface{}{
		StatVm:           nr.State.Y[VMIdx] + pr.EL,
		StatVth:          pr.ThInf,
		StatG:            pr.G,
		StatEL:           pr.EL,
		StatCm:           pr.C,
		StatTRef:         pr.TRef,
		StatVReset:       pr.VReset,
		StatAscInit:      cloneFloats(pr.Asc.Init[:na]),
		StatAscDecay:     cloneFloats(pr.Asc.Decay[:na]),
		StatAscAmps:      cloneFloats(pr.Asc.Amps[:na]),
		StatAscR:         cloneFloats(pr.Asc.R[:na]),
		StatTauSyn:       cloneFloats(pr.Syn.Tau),
		StatERev:         cloneFloats(pr.Syn.ERev),
		StatSpikeThrFlag: pr.ThrSpike.On,
		StatAscFlag:      pr.Asc.On,
		StatVoltThrFlag:  pr.ThrVolt.On,
		StatModel:        md.String(),
		StatRecordables:  nr.Recordables(),
	}
	if pr.ThrSpike.On {
		d[StatThSpikeAdd] = pr.ThrSpike.Add
		d[StatThSpikeDecay] = pr.ThrSpike.Decay
		d[StatVResetFrac] = pr.ResetFrac
		d[StatVResetAdd] = pr.ResetAdd
	}
	if pr.ThrVolt.On {
		d[StatThVoltIndex] = pr.ThrVolt.Index
		d[StatThVoltDecay] = pr.ThrVolt.Decay
	}
	return d
}

// SetStatus applies a partial update from the status dictionary, with
// absent keys keeping their current values. The update is all or
// nothing: it is staged onto copies and validated before anything
// becomes visible, so a rejected update leaves the neuron exactly as it
// was. A change in receptor count resizes the conductance state, delay
// lines, and recordable registry to the new trailing ports. The
// mechanism flag and model keys are derived, never set: activate a
// mechanism by populating its parameters (see GetStatus).
func (nr *Neuron) SetStatus(d map[string]interface{}) error {
	for key := range d {
		if !statKeys[key] {
			return fmt.Errorf("glif: unknown status key %q", key)
		}
	}
	ptmp := nr.Params.Clone()
	deltaEL, err := ptmp.setFromDict(d)
	if err != nil {
		return err
	}
	if err := ptmp.Validate(); err != nil {
		return err
	}
	stmp := nr.State.Clone()
	if err := stmp.setFromDict(d, ptmp, deltaEL); err != nil {
		return err
	}
	oldn := nr.Params.NReceptors()
	nr.Params = *ptmp
	nr.State = *stmp
	if newn := ptmp.NReceptors(); newn != oldn {
		nr.SyncBuffers()
		nr.SyncRecordables(oldn, newn)
	}
	nr.Calibrate()
	return nil
}
