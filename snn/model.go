// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/spiking/core"
	"github.com/goki/mat32"
)

// PreImpact runs the first phase of the step for one neuron.
func PreImpact(kind NeuronKinds, nrn *Neuron) {
	nrn.PendingBlocking = 0
	nrn.HasPendingBlocking = false
	if kind.IsPlastic() {
		nrn.DopamineValue = 0
		nrn.IsBeingForced = false
	}
	if kind.IsAltAI() {
		nrn.altaiPreImpact()
	} else {
		nrn.blifatPreImpact()
	}
}

// ApplyImpact applies one synaptic impact to the neuron. forcing is the
// IsForcing flag of the message carrying the impact.
func ApplyImpact(kind NeuronKinds, nrn *Neuron, imp *core.SynapticImpact, forcing bool) error {
	var err error
	switch kind {
	case BLIFAT, ResourceBLIFAT:
		err = nrn.blifatImpact(imp)
	case AltAILIF, ResourceAltAILIF:
		err = nrn.altaiImpact(imp)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownNeuronKind, kind)
	}
	if err != nil {
		return fmt.Errorf("%v neuron: %w", kind, err)
	}
	if kind.IsPlastic() && imp.OutputType == core.Excitatory && forcing {
		nrn.IsBeingForced = true
	}
	return nil
}

// PostImpact runs the last phase of the step and returns true if the neuron spiked.
func PostImpact(kind NeuronKinds, nrn *Neuron) bool {
	if kind.IsAltAI() {
		return nrn.altaiPostImpact()
	}
	return nrn.blifatPostImpact()
}

// mergeBlocking keeps the blocking impact of largest magnitude received
// this step; on equal magnitude the negative (blocking) value wins.
func (nrn *Neuron) mergeBlocking(v float32) {
	if !nrn.HasPendingBlocking {
		nrn.PendingBlocking = v
		nrn.HasPendingBlocking = true
		return
	}
	av, ap := mat32.Abs(v), mat32.Abs(nrn.PendingBlocking)
	if av > ap || (av == ap && v < 0) {
		nrn.PendingBlocking = v
	}
}

// applyBlocking applies the merged blocking impact of this step to the
// blocking timer. A value of the same sign as the current timer but smaller
// magnitude does not shorten it.
func (nrn *Neuron) applyBlocking() {
	if !nrn.HasPendingBlocking {
		return
	}
	nrn.HasPendingBlocking = false
	v := int64(nrn.PendingBlocking)
	cur := nrn.BlockingPeriod
	sameSign := (v > 0 && cur > 0) || (v < 0 && cur < 0)
	if sameSign && absInt64(cur) > absInt64(v) && cur != NoBlocking {
		return
	}
	nrn.BlockingPeriod = v
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
