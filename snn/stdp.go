// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"math"

	"github.com/emer/spiking/core"
	"github.com/goki/mat32"
)

// WorkingProjections returns the projections trained by the resource STDP
// engine of pop: unlocked ResourceSTDPDelta projections onto pop.
func WorkingProjections(pop *Population, projs []*Projection) []*Projection {
	var wp []*Projection
	for _, pj := range projs {
		if pj.Kind == ResourceSTDPDelta && !pj.Locked && pj.PostUID == pop.UID {
			wp = append(wp, pj)
		}
	}
	return wp
}

// ConnectedSynapses returns the synapses of the projections onto neuron idx.
func ConnectedSynapses(projs []*Projection, idx uint32) []*Synapse {
	var syns []*Synapse
	for _, pj := range projs {
		for _, si := range pj.SynapsesByPost(idx) {
			syns = append(syns, &pj.Synapses[si])
		}
	}
	return syns
}

// plasticityScale is min(2^-stability, 1).
func plasticityScale(stability float32) float32 {
	return mat32.Min(mat32.Pow(2, -stability), 1)
}

// RecalcWeights sets the weight of each synapse from its resource.
func RecalcWeights(syns []*Synapse) {
	for _, sy := range syns {
		sy.Weight = sy.Resource.WeightOf()
	}
}

// UpdateISI advances the interspike interval machine for a spike at step
// and returns true if a new sequence replaced a running one.
func (nrn *Neuron) UpdateISI(step core.Step) bool {
	if nrn.IsBeingForced {
		// forced spikes do not count as sequence steps
		nrn.ISIStatus = IsForced
		return false
	}
	restart := false
	gap := step - nrn.LastStep
	isiMax := nrn.Resource.ISIMax
	switch nrn.ISIStatus {
	case NotInPeriod, IsForced:
		nrn.ISIStatus = PeriodStarted
		nrn.FirstISISpike = step
	case PeriodStarted:
		if gap < isiMax {
			nrn.ISIStatus = PeriodContinued
		} else {
			nrn.FirstISISpike = step
			restart = true
		}
	case PeriodContinued:
		if gap >= isiMax || nrn.DopamineValue != 0 {
			nrn.ISIStatus = PeriodStarted
			nrn.FirstISISpike = step
			restart = true
		}
	}
	nrn.LastStep = step
	return restart
}

// hadSpikeInWindow returns true if the last presynaptic spike of the
// synapse reached the neuron within [step-period, step].
func hadSpikeInWindow(sy *Synapse, step core.Step) bool {
	arrival := int64(sy.Resource.LastSpikeStep) + int64(sy.Delay) - 1
	if sy.Delay == 0 {
		arrival = int64(sy.Resource.LastSpikeStep)
	}
	st := int64(step) - int64(sy.Resource.DopaminePlasticityPeriod)
	return st <= arrival && arrival <= int64(step)
}

// ProcessSpikes runs the hebbian part of the engine for the neurons that
// spiked this step.
func ProcessSpikes(pop *Population, projs []*Projection, spiked []uint32, step core.Step) {
	for _, idx := range spiked {
		nrn := &pop.Neurons[idx]
		rp := &nrn.Resource
		syns := ConnectedSynapses(projs, idx)

		nrn.LastSpikeStep = step
		if nrn.UpdateISI(step) {
			nrn.Stability -= rp.StabilityChangeAtISI
		}

		nrn.AdditionalThreshold = 0
		for _, sy := range syns {
			nrn.AdditionalThreshold += mat32.Max(sy.Weight, 0)
			had := hadSpikeInWindow(sy, step)
			// a running sequence keeps the contribution of earlier spikes
			if nrn.ISIStatus != PeriodContinued || had {
				sy.Resource.HasContributed = had
			}
		}
		nrn.AdditionalThreshold *= rp.SynapseSumThresholdCoefficient

		if nrn.ISIStatus != PeriodContinued {
			for _, sy := range syns {
				sy.Resource.HadHebbianUpdate = false
			}
		}

		if nrn.ISIStatus != IsForced {
			for _, sy := range syns {
				rr := &sy.Resource
				rr.SynapticResource -= rr.DU
				nrn.FreeSynapticResource += rr.DU
				if rr.HasContributed && !rr.HadHebbianUpdate {
					dh := rp.HebbianPlasticity * plasticityScale(nrn.Stability)
					rr.SynapticResource += dh
					nrn.FreeSynapticResource -= dh
					rr.HadHebbianUpdate = true
				}
			}
		}
		RecalcWeights(syns)
	}
}

// DopaminePlasticity applies the dopamine received this step to every
// neuron of the population.
func DopaminePlasticity(pop *Population, projs []*Projection, step core.Step) {
	for ni := range pop.Neurons {
		nrn := &pop.Neurons[ni]
		da := nrn.DopamineValue
		if !(da > 0 || (da < 0 && nrn.ISIStatus != IsForced)) {
			continue
		}
		rp := &nrn.Resource
		syns := ConnectedSynapses(projs, uint32(ni))
		if step-nrn.LastSpikeStep <= rp.DopaminePlasticityTime {
			dr := da * plasticityScale(nrn.Stability)
			for _, sy := range syns {
				if sy.Resource.HasContributed {
					sy.Resource.SynapticResource += dr
					nrn.FreeSynapticResource -= dr
				}
			}
		}

		if nrn.IsBeingForced || da < 0 {
			nrn.Stability -= da * rp.StabilityChangeParameter
			nrn.Stability = mat32.Max(nrn.Stability, 0)
		} else {
			nrn.Stability += rp.StabilityChangeParameter * da * stabilityFactor(nrn, step)
		}
		RecalcWeights(syns)
	}
}

// stabilityFactor is max(2 - |step - first_isi_spike - isi_max| / isi_max, -1).
func stabilityFactor(nrn *Neuron, step core.Step) float32 {
	diff := math.Abs(float64(int64(step) - int64(nrn.FirstISISpike) - int64(nrn.Resource.ISIMax)))
	isiMax := float64(nrn.Resource.ISIMax)
	if isiMax == 0 {
		if diff == 0 {
			return 2
		}
		return -1
	}
	return float32(math.Max(2-diff/isiMax, -1))
}

// RenormalizeResource spreads the free resource of every neuron over its
// synapses once it exceeds the neuron's threshold.
func RenormalizeResource(pop *Population, projs []*Projection, step core.Step) {
	for ni := range pop.Neurons {
		nrn := &pop.Neurons[ni]
		rp := &nrn.Resource
		if step-nrn.LastStep <= rp.ISIMax && nrn.ISIStatus != IsForced {
			continue
		}
		if mat32.Abs(nrn.FreeSynapticResource) < rp.SynapticResourceThreshold {
			continue
		}
		syns := ConnectedSynapses(projs, uint32(ni))
		denom := float32(len(syns)) + rp.ResourceDrainCoefficient
		if denom == 0 {
			continue
		}
		add := nrn.FreeSynapticResource / denom
		for _, sy := range syns {
			sy.Resource.SynapticResource += add
		}
		nrn.FreeSynapticResource = 0
		RecalcWeights(syns)
	}
}

// TrainPopulation runs the resource STDP engine on a plastic population
// after its post-impact phase. projs are all the projections of the network.
func TrainPopulation(pop *Population, projs []*Projection, spiked []uint32, step core.Step) {
	if !pop.Kind.IsPlastic() {
		return
	}
	wp := WorkingProjections(pop, projs)
	if len(wp) == 0 {
		return
	}
	if len(spiked) > 0 {
		ProcessSpikes(pop, wp, spiked, step)
	}
	DopaminePlasticity(pop, wp, step)
	RenormalizeResource(pop, wp, step)
}
