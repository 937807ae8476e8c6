// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/spiking/core"
)

// BlifatParams are the parameters of the BLIFAT model: leaky integrate and
// fire with adaptive threshold.
type BlifatParams struct {
	ActivationThreshold         float32 `def:"1" desc:"base firing threshold"`
	ThresholdDecay              float32 `def:"0" desc:"per-step multiplier of the dynamic threshold"`
	ThresholdIncrement          float32 `def:"0" desc:"added to the dynamic threshold on each spike"`
	PostsynapticTraceDecay      float32 `def:"0" desc:"per-step multiplier of the postsynaptic trace"`
	PostsynapticTraceIncrement  float32 `def:"0" desc:"added to the postsynaptic trace on each spike"`
	InhibitoryConductanceDecay  float32 `def:"0" desc:"per-step multiplier of the inhibitory conductance"`
	PotentialDecay              float32 `def:"0" desc:"per-step multiplier of the membrane potential"`
	BurstingPeriod              uint32  `def:"0" desc:"number of steps after a spike at whose end the reflexive weight is added to the potential"`
	ReflexiveWeight             float32 `def:"0" desc:"added to the potential at the end of the bursting period"`
	ReversalInhibitoryPotential float32 `def:"-0.3" desc:"potential toward which inhibitory conductance pulls"`
	AbsoluteRefractoryPeriod    uint64  `def:"0" desc:"steps after a spike during which the neuron cannot fire"`
	PotentialResetValue         float32 `def:"0" desc:"potential after a spike"`
	MinPotential                float32 `def:"-1e9" desc:"lower bound of the potential"`
}

func (bp *BlifatParams) Defaults() {
	bp.ActivationThreshold = 1
	bp.ThresholdDecay = 0
	bp.ThresholdIncrement = 0
	bp.PostsynapticTraceDecay = 0
	bp.PostsynapticTraceIncrement = 0
	bp.InhibitoryConductanceDecay = 0
	bp.PotentialDecay = 0
	bp.BurstingPeriod = 0
	bp.ReflexiveWeight = 0
	bp.ReversalInhibitoryPotential = -0.3
	bp.AbsoluteRefractoryPeriod = 0
	bp.PotentialResetValue = 0
	bp.MinPotential = -1.0e9
}

func (nrn *Neuron) blifatPreImpact() {
	bp := &nrn.Blifat
	nrn.StepsSinceFiring++
	nrn.DynamicThreshold *= bp.ThresholdDecay
	nrn.PostsynapticTrace *= bp.PostsynapticTraceDecay
	nrn.InhibitoryConductance *= bp.InhibitoryConductanceDecay

	if nrn.BurstingPhase > 0 {
		nrn.BurstingPhase--
		if nrn.BurstingPhase == 0 {
			nrn.Potential = nrn.Potential*bp.PotentialDecay + bp.ReflexiveWeight
		} else {
			nrn.Potential *= bp.PotentialDecay
		}
	} else {
		nrn.Potential *= bp.PotentialDecay
	}
	nrn.PreImpactPotential = nrn.Potential
}

func (nrn *Neuron) blifatImpact(imp *core.SynapticImpact) error {
	switch imp.OutputType {
	case core.Excitatory:
		nrn.Potential += imp.ImpactValue
	case core.InhibitoryCurrent:
		nrn.Potential -= imp.ImpactValue
	case core.InhibitoryConductance:
		nrn.InhibitoryConductance += imp.ImpactValue
	case core.Dopamine:
		nrn.DopamineValue += imp.ImpactValue
	case core.Blocking:
		nrn.mergeBlocking(imp.ImpactValue)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedImpact, imp.OutputType)
	}
	return nil
}

// blifatPostImpact returns true if the neuron spiked.
func (nrn *Neuron) blifatPostImpact() bool {
	bp := &nrn.Blifat
	nrn.applyBlocking()

	if nrn.BlockingPeriod <= 0 {
		// blocked: input of this step is discarded
		nrn.Potential = nrn.PreImpactPotential
		if nrn.BlockingPeriod < 0 {
			nrn.BlockingPeriod++
			if nrn.BlockingPeriod == 0 {
				nrn.BlockingPeriod = NoBlocking
			}
		}
	} else if nrn.BlockingPeriod != NoBlocking {
		nrn.BlockingPeriod--
	}

	if nrn.InhibitoryConductance < 1 {
		nrn.Potential -= (nrn.Potential - bp.ReversalInhibitoryPotential) * nrn.InhibitoryConductance
	} else {
		nrn.Potential = bp.ReversalInhibitoryPotential
	}

	spiked := false
	if nrn.StepsSinceFiring > bp.AbsoluteRefractoryPeriod &&
		nrn.Potential >= bp.ActivationThreshold+nrn.DynamicThreshold+nrn.AdditionalThreshold {
		nrn.DynamicThreshold += bp.ThresholdIncrement
		nrn.PostsynapticTrace += bp.PostsynapticTraceIncrement
		nrn.Potential = bp.PotentialResetValue
		nrn.BurstingPhase = bp.BurstingPeriod
		nrn.StepsSinceFiring = 0
		spiked = true
	}

	if nrn.Potential < bp.MinPotential {
		nrn.Potential = bp.MinPotential
	}
	return spiked
}
