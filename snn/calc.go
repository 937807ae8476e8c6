// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"sort"

	"github.com/emer/spiking/core"
)

// SpikeCounts counts the spikes of each presynaptic neuron across the
// messages of one step.
func SpikeCounts(msgs []*core.SpikeMessage) map[uint32]int {
	counts := make(map[uint32]int)
	for _, msg := range msgs {
		for _, idx := range msg.NeuronIndexes {
			counts[idx]++
		}
	}
	return counts
}

// PrepareSpikes runs the rule's projection-level hook on the spike messages
// received this step and returns the presynaptic spike counts to transmit.
func (pj *Projection) PrepareSpikes(msgs []*core.SpikeMessage, step core.Step, learn bool) map[uint32]int {
	rule := pj.Rule()
	if rule.InitProjection != nil {
		msgs = rule.InitProjection(pj, msgs, step, learn)
	}
	return SpikeCounts(msgs)
}

// CalcSpikes turns the presynaptic spikes of this step into scheduled
// impacts, on the calling goroutine.
func (pj *Projection) CalcSpikes(msgs []*core.SpikeMessage, step core.Step, learn bool) {
	counts := pj.PrepareSpikes(msgs, step, learn)
	pres := make([]uint32, 0, len(counts))
	for idx := range counts {
		pres = append(pres, idx)
	}
	sort.Slice(pres, func(i, j int) bool { return pres[i] < pres[j] })

	var batch []PendingImpact
	for _, idx := range pres {
		for _, si := range pj.SynapsesByPre(idx) {
			batch = pj.spikeSynapse(batch, si, counts[idx], step)
		}
	}
	pj.Schedule(batch)
	pj.FinishSpikes(learn)
}

// CalcSpikesPart schedules the impacts of synapses [st, ed) given the spike
// counts from PrepareSpikes, one impact per spike. Concurrent calls must cover disjoint ranges.
func (pj *Projection) CalcSpikesPart(counts map[uint32]int, step core.Step, st, ed int) {
	var batch []PendingImpact
	for si := st; si < ed; si++ {
		if n := counts[pj.Synapses[si].Pre]; n > 0 {
			batch = pj.spikeSynapse(batch, si, n, step)
		}
	}
	pj.Schedule(batch)
}

// FinishSpikes runs the rule's weight modification after all the impacts
// of the step are scheduled.
func (pj *Projection) FinishSpikes(learn bool) {
	if rule := pj.Rule(); learn && rule.ModifyWeights != nil {
		rule.ModifyWeights(pj)
	}
}

// spikeSynapse appends one impact per presynaptic spike occurrence.
func (pj *Projection) spikeSynapse(batch []PendingImpact, si, count int, step core.Step) []PendingImpact {
	sy := &pj.Synapses[si]
	rule := pj.Rule()
	for i := 0; i < count; i++ {
		if rule.InitSynapse != nil {
			rule.InitSynapse(sy, step)
		}
		batch = append(batch, PendingImpact{
			Step: FutureStep(step, sy.Delay),
			Impact: core.SynapticImpact{
				SynapseIndex:            si,
				ImpactValue:             sy.Weight,
				OutputType:              sy.OutputType,
				PresynapticNeuronIndex:  sy.Pre,
				PostsynapticNeuronIndex: sy.Post,
			},
		})
	}
	return batch
}
