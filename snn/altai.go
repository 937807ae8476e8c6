// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/spiking/core"
	"github.com/goki/mat32"
)

// AltaiParams are the parameters of the AltAI LIF model: integer-style
// potential with a constant leak, configurable reset policies and a
// negative activation threshold.
type AltaiParams struct {
	ActivationThreshold         float32 `def:"1" desc:"firing threshold"`
	NegativeActivationThreshold float32 `def:"30000" desc:"magnitude of the lower threshold"`
	PotentialLeak               float32 `def:"0" desc:"added to the potential every step, sign-reversed for negative potentials if LeakRev"`
	PotentialResetValue         float32 `def:"0" desc:"potential after reset"`
	IsDiff                      bool    `def:"false" desc:"subtract the threshold on crossing"`
	IsReset                     bool    `def:"true" desc:"reset the potential on crossing"`
	LeakRev                     bool    `def:"true" desc:"leak sign follows the sign of the potential"`
	Saturate                    bool    `def:"true" desc:"clamp at the negative threshold"`
	DoNotSave                   bool    `def:"false" desc:"reset the potential at the start of every step"`
}

func (ap *AltaiParams) Defaults() {
	ap.ActivationThreshold = 1
	ap.NegativeActivationThreshold = 30000
	ap.PotentialLeak = 0
	ap.PotentialResetValue = 0
	ap.IsDiff = false
	ap.IsReset = true
	ap.LeakRev = true
	ap.Saturate = true
	ap.DoNotSave = false
}

func (nrn *Neuron) altaiPreImpact() {
	ap := &nrn.Altai
	nrn.Potential = mat32.Round(nrn.Potential)
	if ap.DoNotSave {
		nrn.Potential = ap.PotentialResetValue
	}
	nrn.PreImpactPotential = nrn.Potential
}

func (nrn *Neuron) altaiImpact(imp *core.SynapticImpact) error {
	switch imp.OutputType {
	case core.Excitatory:
		nrn.Potential += imp.ImpactValue
	case core.InhibitoryCurrent:
		nrn.Potential -= imp.ImpactValue
	case core.Dopamine:
		nrn.DopamineValue += imp.ImpactValue
	case core.Blocking:
		nrn.mergeBlocking(imp.ImpactValue)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedImpact, imp.OutputType)
	}
	return nil
}

// altaiPostImpact returns true if the neuron spiked.
func (nrn *Neuron) altaiPostImpact() bool {
	ap := &nrn.Altai
	nrn.applyBlocking()

	sign := float32(1)
	if ap.LeakRev && nrn.Potential < 0 {
		sign = -1
	}
	nrn.Potential += ap.PotentialLeak * sign

	if nrn.BlockingPeriod <= 0 {
		// blocked: input and leak of this step are discarded
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

	spiked := false
	wasReset := false
	thr := ap.ActivationThreshold + nrn.AdditionalThreshold
	if nrn.Potential >= thr {
		spiked = true
		if ap.IsDiff {
			nrn.Potential -= thr
		}
		if ap.IsReset {
			nrn.Potential = ap.PotentialResetValue
			wasReset = true
		}
	}

	if nrn.Potential <= -ap.NegativeActivationThreshold && !wasReset {
		switch {
		case ap.Saturate:
			nrn.Potential = -ap.NegativeActivationThreshold
		case ap.IsReset:
			nrn.Potential = -ap.PotentialResetValue
		case ap.IsDiff:
			nrn.Potential += ap.NegativeActivationThreshold
		}
	}
	return spiked
}
