// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ode provides adaptive-step integration of systems of first-order
ordinary differential equations dy/dt = f(t, y), for driving the continuous
part of hybrid continuous / discrete-event models.

The integrator advances a flat []float64 state in place across a requested
span, subdividing it internally under error control: each trial step is
taken with an embedded Runge-Kutta-Fehlberg 4(5) pair, the difference
between the two orders estimates the local error, and the step size is
rescaled to hold that error within AbsTol + RelTol*|y| per component.
The adapted step size persists across calls, so repeated short spans (one
per simulation step) do not pay the startup cost every time.
*/
package ode

import (
	"errors"
	"fmt"
	"math"
)

// Func is the right-hand side of a system dy/dt = f(t, y): it writes the
// derivative of state y at time t into dydt (len(dydt) == len(y)) and must
// not retain or modify y.
type Func func(t float64, y, dydt []float64)

// Step-size control errors.
var (
	// ErrStepUnderflow is returned when error control drives the step size
	// below MinStep (or below the resolution of t) without meeting the
	// tolerance.
	ErrStepUnderflow = errors.New("step size underflow")

	// ErrTooManySteps is returned when a single Evolve call exceeds
	// MaxSteps trial steps.
	ErrTooManySteps = errors.New("too many steps")
)

// Config holds the integration control parameters.
type Config struct {

	// starting step size; 0 = use the full requested span
	InitialStep float64

	// smallest permitted step size; 0 = limited only by float resolution
	MinStep float64

	// largest permitted step size; 0 = the full requested span
	MaxStep float64

	// absolute error tolerance per component per step
	AbsTol float64 `def:"0.001"`

	// relative error tolerance per component per step
	RelTol float64 `def:"0"`

	// safety factor applied to the predicted step scale
	Safety float64 `def:"0.9"`

	// maximum number of trial steps in one Evolve call
	MaxSteps int `def:"100000"`
}

// Defaults sets default control parameters.
func (cf *Config) Defaults() {
	cf.AbsTol = 1e-3
	cf.RelTol = 0
	cf.Safety = 0.9
	cf.MaxSteps = 100000
}

// Update fills in zero control values that have non-zero defaults.
func (cf *Config) Update() {
	if cf.AbsTol == 0 && cf.RelTol == 0 {
		cf.AbsTol = 1e-3
	}
	if cf.Safety == 0 {
		cf.Safety = 0.9
	}
	if cf.MaxSteps == 0 {
		cf.MaxSteps = 100000
	}
}

// Stats reports work counters for the integration so far, since the last
// Reset.
type Stats struct {

	// accepted steps
	Steps int

	// rejected trial steps
	Rejects int

	// right-hand-side evaluations
	Evals int

	// size of the last accepted step
	LastStep float64

	// suggested size of the next step
	NextStep float64
}

// step-scale clamps: a rejected or barely-passing step shrinks by at most
// minScale, an easy step grows by at most maxScale.
const (
	minScale = 0.4
	maxScale = 2.5
)

// RKF45 is an adaptive Runge-Kutta-Fehlberg 4(5) integrator. The zero
// value is not usable; get one from NewRKF45. One instance serves one
// state vector at a time; it is not safe for concurrent use.
type RKF45 struct {

	// control parameters
	Config Config

	// work counters
	Stat Stats

	// persistent adapted step size; 0 until first use
	h float64

	// stage derivatives and trial state
	k    [6][]float64
	ytry []float64
	yerr []float64
}

// NewRKF45 returns an integrator with the given control parameters
// (zero-valued controls get their defaults).
func NewRKF45(cfg Config) *RKF45 {
	cfg.Update()
	rk := &RKF45{Config: cfg}
	rk.Reset()
	return rk
}

// Reset discards the adapted step size and zeroes the work counters,
// returning the integrator to its initial condition.
func (rk *RKF45) Reset() {
	rk.h = rk.Config.InitialStep
	rk.Stat = Stats{NextStep: rk.h}
}

// setSize sizes the scratch space for an n-component state.
func (rk *RKF45) setSize(n int) {
	if len(rk.ytry) == n {
		return
	}
	for i := range rk.k {
		rk.k[i] = make([]float64, n)
	}
	rk.ytry = make([]float64, n)
	rk.yerr = make([]float64, n)
}

// Fehlberg tableau.
var (
	rkfA = [6]float64{0, 1.0 / 4.0, 3.0 / 8.0, 12.0 / 13.0, 1, 1.0 / 2.0}

	rkfB = [6][5]float64{
		{},
		{1.0 / 4.0},
		{3.0 / 32.0, 9.0 / 32.0},
		{1932.0 / 2197.0, -7200.0 / 2197.0, 7296.0 / 2197.0},
		{439.0 / 216.0, -8, 3680.0 / 513.0, -845.0 / 4104.0},
		{-8.0 / 27.0, 2, -3544.0 / 2565.0, 1859.0 / 4104.0, -11.0 / 40.0},
	}

	// 5th-order solution weights (used to advance)
	rkfC5 = [6]float64{16.0 / 135.0, 0, 6656.0 / 12825.0, 28561.0 / 56430.0, -9.0 / 50.0, 2.0 / 55.0}

	// 4th-order solution weights (error estimate = 5th - 4th)
	rkfC4 = [6]float64{25.0 / 216.0, 0, 1408.0 / 2565.0, 2197.0 / 4104.0, -1.0 / 5.0, 0}
)

// trial takes one trial step of size h from t, filling ytry with the
// 5th-order solution and yerr with the embedded error estimate.
func (rk *RKF45) trial(f Func, t, h float64, y []float64) {
	n := len(y)
	f(t, y, rk.k[0])
	for s := 1; s < 6; s++ {
		for i := 0; i < n; i++ {
			acc := y[i]
			for j := 0; j < s; j++ {
				acc += h * rkfB[s][j] * rk.k[j][i]
			}
			rk.ytry[i] = acc
		}
		f(t+rkfA[s]*h, rk.ytry, rk.k[s])
	}
	rk.Stat.Evals += 6
	for i := 0; i < n; i++ {
		y5 := y[i]
		y4 := y[i]
		for s := 0; s < 6; s++ {
			y5 += h * rkfC5[s] * rk.k[s][i]
			y4 += h * rkfC4[s] * rk.k[s][i]
		}
		rk.ytry[i] = y5
		rk.yerr[i] = y5 - y4
	}
}

// errRatio returns the worst component ratio of estimated error to
// allowed error AbsTol + RelTol*|y|.
func (rk *RKF45) errRatio(y []float64) float64 {
	mx := 0.0
	for i, e := range rk.yerr {
		allow := rk.Config.AbsTol + rk.Config.RelTol*math.Abs(y[i])
		if allow <= 0 {
			allow = math.SmallestNonzeroFloat64
		}
		if r := math.Abs(e) / allow; r > mx {
			mx = r
		}
	}
	return mx
}

// Evolve advances y in place from t to tEnd, taking as many internal steps
// as error control requires. The final step is truncated to land exactly
// on tEnd. On error y holds the last accepted state.
func (rk *RKF45) Evolve(f Func, t, tEnd float64, y []float64) error {
	if tEnd <= t {
		return nil
	}
	rk.setSize(len(y))
	if rk.h <= 0 {
		rk.h = tEnd - t
	}
	if rk.Config.MaxStep > 0 && rk.h > rk.Config.MaxStep {
		rk.h = rk.Config.MaxStep
	}
	for nt := 0; ; nt++ {
		if nt >= rk.Config.MaxSteps {
			return fmt.Errorf("ode: %w: %d trial steps from t=%g without reaching t=%g", ErrTooManySteps, nt, t, tEnd)
		}
		h := rk.h
		trunc := false
		if t+h >= tEnd {
			h = tEnd - t
			trunc = true
		}
		if t+h == t {
			return fmt.Errorf("ode: %w: h=%g at t=%g", ErrStepUnderflow, h, t)
		}
		rk.trial(f, t, h, y)
		ratio := rk.errRatio(y)
		if ratio <= 1 { // accept
			copy(y, rk.ytry)
			t += h
			rk.Stat.Steps++
			rk.Stat.LastStep = h
			scale := maxScale
			if ratio > 0 {
				scale = rk.Config.Safety * math.Pow(1/ratio, 0.2)
				if scale > maxScale {
					scale = maxScale
				}
				if scale < minScale {
					scale = minScale
				}
			}
			// a truncated final step only updates the persistent size
			// when error control wants it smaller
			if !trunc || h*scale < rk.h {
				rk.h = h * scale
			}
			if rk.Config.MaxStep > 0 && rk.h > rk.Config.MaxStep {
				rk.h = rk.Config.MaxStep
			}
			rk.Stat.NextStep = rk.h
			if trunc || t >= tEnd {
				return nil
			}
			continue
		}
		// reject: shrink and retry
		rk.Stat.Rejects++
		scale := rk.Config.Safety * math.Pow(1/ratio, 0.2)
		if scale < minScale {
			scale = minScale
		}
		if scale > 1 {
			scale = 1
		}
		rk.h = h * scale
		if rk.Config.MinStep > 0 && rk.h < rk.Config.MinStep {
			return fmt.Errorf("ode: %w: required h=%g below MinStep=%g at t=%g", ErrStepUnderflow, rk.h, rk.Config.MinStep, t)
		}
		rk.Stat.NextStep = rk.h
	}
}
