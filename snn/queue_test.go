// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"testing"

	"github.com/emer/spiking/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureStep(t *testing.T) {
	assert.Equal(t, core.Step(5), FutureStep(5, 1))
	assert.Equal(t, core.Step(7), FutureStep(5, 3))
	assert.Equal(t, core.Step(5), FutureStep(5, 0))
}

// fanIn builds n synapses from presynaptic i to postsynaptic 0 with delay i+1.
func fanIn(t *testing.T, kind SynapseKinds, n int) *Projection {
	t.Helper()
	pj, err := NewProjection(core.NilUID, core.NewUID(), core.NewUID(), kind, n, func(idx int) (Synapse, bool) {
		return NewSynapse(float32(idx+1), uint32(idx+1), uint32(idx), 0), true
	})
	require.NoError(t, err)
	return pj
}

func spikes(sender core.UID, step core.Step, idxs ...uint32) []*core.SpikeMessage {
	return []*core.SpikeMessage{{Header: core.Header{SenderUID: sender, SendTime: step}, NeuronIndexes: idxs}}
}

func TestDelayQueue(t *testing.T) {
	pj := fanIn(t, Delta, 3)
	pj.CalcSpikes(spikes(pj.PreUID, 10, 0, 1, 2), 10, true)
	assert.Equal(t, 3, pj.NQueued())

	due := pj.PopDue(10)
	require.Len(t, due, 1)
	msg := due[0]
	assert.True(t, msg.IsForcing)
	assert.Equal(t, pj.UID, msg.SenderUID)
	assert.Equal(t, pj.PreUID, msg.PresynapticPopulationUID)
	assert.Equal(t, pj.PostUID, msg.PostsynapticPopulationUID)
	assert.Equal(t, core.Step(10), msg.SendTime)
	require.Len(t, msg.Impacts, 1)
	assert.Equal(t, 0, msg.Impacts[0].SynapseIndex)
	assert.Equal(t, float32(1), msg.Impacts[0].ImpactValue)

	due = pj.PopDue(11)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Impacts[0].SynapseIndex)
	assert.Equal(t, 1, pj.NQueued())

	// a skipped flush is not lost
	due = pj.PopDue(20)
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].Impacts[0].SynapseIndex)
	assert.Equal(t, 0, pj.NQueued())
	assert.Empty(t, pj.PopDue(21))
}

func TestDuplicateSpikes(t *testing.T) {
	pj := fanIn(t, Delta, 1)
	pj.Synapses[0].Weight = -3
	pj.Synapses[0].OutputType = core.Blocking
	msgs := append(spikes(pj.PreUID, 0, 0), spikes(pj.PreUID, 0, 0)...)
	pj.CalcSpikes(msgs, 0, true)
	due := pj.PopDue(0)
	require.Len(t, due, 1)
	require.Len(t, due[0].Impacts, 2)
	for _, im := range due[0].Impacts {
		assert.Equal(t, float32(-3), im.ImpactValue)
	}

	// same-valued blocking impacts merge to one, not a sum
	nrn := NewNeuron()
	cycle(t, BLIFAT, &nrn, due[0].Impacts...)
	assert.Equal(t, int64(-2), nrn.BlockingPeriod)
}

func TestDuplicateSpikesParts(t *testing.T) {
	pj := fanIn(t, Delta, 2)
	msgs := append(spikes(pj.PreUID, 0, 1), spikes(pj.PreUID, 0, 1, 0)...)
	counts := pj.PrepareSpikes(msgs, 0, true)
	pj.CalcSpikesPart(counts, 0, 0, 2)
	due := pj.PopDue(0)
	require.Len(t, due, 1)
	require.Len(t, due[0].Impacts, 1)
	due = pj.PopDue(1)
	require.Len(t, due, 1)
	require.Len(t, due[0].Impacts, 2)
	for _, im := range due[0].Impacts {
		assert.Equal(t, 1, im.SynapseIndex)
		assert.Equal(t, float32(2), im.ImpactValue)
	}
}

func TestPartsMatchWhole(t *testing.T) {
	whole := fanIn(t, Delta, 6)
	for i := range whole.Synapses {
		whole.Synapses[i].Delay = 2
	}
	whole.BuildIndex()
	parts := whole.Clone()
	msgs := spikes(whole.PreUID, 4, 5, 1, 3)

	whole.CalcSpikes(msgs, 4, true)
	counts := parts.PrepareSpikes(msgs, 4, true)
	parts.CalcSpikesPart(counts, 4, 4, 6)
	parts.CalcSpikesPart(counts, 4, 0, 4)
	parts.FinishSpikes(true)

	w, p := whole.PopDue(5), parts.PopDue(5)
	require.Len(t, w, 1)
	require.Len(t, p, 1)
	assert.Equal(t, w[0].Impacts, p[0].Impacts)
	assert.Len(t, w[0].Impacts, 3)
}

func TestResourceRuleInit(t *testing.T) {
	pj := fanIn(t, ResourceSTDPDelta, 2)
	pj.CalcSpikes(spikes(pj.PreUID, 7, 1), 7, true)
	assert.Equal(t, core.Step(0), pj.Synapses[0].Resource.LastSpikeStep)
	assert.Equal(t, core.Step(7), pj.Synapses[1].Resource.LastSpikeStep)
	due := pj.PopDue(8)
	require.Len(t, due, 1)
	assert.False(t, due[0].IsForcing)
}

func TestProjectionIndex(t *testing.T) {
	pj := fanIn(t, Delta, 3)
	assert.Equal(t, []int{2}, pj.SynapsesByPre(2))
	assert.Equal(t, []int{0, 1, 2}, pj.SynapsesByPost(0))
	assert.Nil(t, pj.SynapsesByPost(1))
	assert.Equal(t, []core.UID{pj.PreUID}, pj.Senders())

	_, err := NewProjection(core.NilUID, core.NilUID, core.NewUID(), SynapseKindsN, 0, nil)
	assert.ErrorIs(t, err, ErrUnknownSynapseKind)
}
