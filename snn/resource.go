// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "math"

// ResourceParams are the per-neuron parameters of the synaptic resource STDP
// engine. Only used for plastic neuron kinds.
type ResourceParams struct {
	InitFreeResource               float32 `def:"1" desc:"initial value of the free synaptic resource"`
	SynapticResourceThreshold      float32 `def:"+Inf" desc:"free resource magnitude at which it is redistributed among the synapses"`
	ResourceDrainCoefficient       float32 `def:"0" desc:"added to the synapse count when redistributing free resource, so part of it is lost"`
	StabilityChangeParameter       float32 `def:"0" desc:"rate of stability change under dopamine"`
	StabilityChangeAtISI           float32 `def:"0" desc:"stability lost when a new ISI sequence begins"`
	ISIMax                         uint64  `def:"1" desc:"maximum gap in steps between spikes of one sequence"`
	HebbianPlasticity              float32 `def:"1" desc:"resource moved to a contributing synapse on a hebbian update"`
	SynapseSumThresholdCoefficient float32 `def:"0" desc:"multiplier of the sum of positive weights that becomes the additional threshold"`
	DopaminePlasticityTime         uint64  `def:"0" desc:"steps after the last spike during which dopamine modifies the synapses"`
}

func (rp *ResourceParams) Defaults() {
	rp.InitFreeResource = 1
	rp.SynapticResourceThreshold = float32(math.Inf(1))
	rp.ResourceDrainCoefficient = 0
	rp.StabilityChangeParameter = 0
	rp.StabilityChangeAtISI = 0
	rp.ISIMax = 1
	rp.HebbianPlasticity = 1
	rp.SynapseSumThresholdCoefficient = 0
	rp.DopaminePlasticityTime = 0
}
