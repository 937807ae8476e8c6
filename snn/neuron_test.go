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

// cycle runs one full update with the given impacts and returns spiked.
func cycle(t *testing.T, kind NeuronKinds, nrn *Neuron, imps ...core.SynapticImpact) bool {
	t.Helper()
	PreImpact(kind, nrn)
	for i := range imps {
		require.NoError(t, ApplyImpact(kind, nrn, &imps[i], false))
	}
	return PostImpact(kind, nrn)
}

func exc(v float32) core.SynapticImpact {
	return core.SynapticImpact{ImpactValue: v, OutputType: core.Excitatory}
}

func imp(typ core.OutputTypes, v float32) core.SynapticImpact {
	return core.SynapticImpact{ImpactValue: v, OutputType: typ}
}

func TestBlifatSpike(t *testing.T) {
	nrn := NewNeuron()
	assert.False(t, cycle(t, BLIFAT, &nrn, exc(0.5)))
	assert.True(t, cycle(t, BLIFAT, &nrn, exc(1)))
	assert.Equal(t, float32(0), nrn.Potential)
	assert.Equal(t, uint64(0), nrn.StepsSinceFiring)
}

func TestBlifatDynamicThreshold(t *testing.T) {
	nrn := NewNeuron()
	nrn.Blifat.ThresholdIncrement = 1
	nrn.Blifat.ThresholdDecay = 1
	assert.True(t, cycle(t, BLIFAT, &nrn, exc(1)))
	assert.False(t, cycle(t, BLIFAT, &nrn, exc(1.5)))
	assert.True(t, cycle(t, BLIFAT, &nrn, exc(2)))
	assert.Equal(t, float32(2), nrn.DynamicThreshold)
}

func TestBlifatConductance(t *testing.T) {
	nrn := NewNeuron()
	assert.False(t, cycle(t, BLIFAT, &nrn, exc(5), imp(core.InhibitoryConductance, 1)))
	assert.InDelta(t, -0.3, nrn.Potential, 1e-6)
}

func TestBlifatBursting(t *testing.T) {
	nrn := NewNeuron()
	nrn.Blifat.BurstingPeriod = 2
	nrn.Blifat.ReflexiveWeight = 5
	assert.True(t, cycle(t, BLIFAT, &nrn, exc(1)))
	assert.False(t, cycle(t, BLIFAT, &nrn))
	assert.True(t, cycle(t, BLIFAT, &nrn))
}

func TestBlifatBlocking(t *testing.T) {
	nrn := NewNeuron()
	spikes := []bool{
		cycle(t, BLIFAT, &nrn, imp(core.Blocking, -3), exc(5)),
		cycle(t, BLIFAT, &nrn, exc(5)),
		cycle(t, BLIFAT, &nrn, exc(5)),
		cycle(t, BLIFAT, &nrn, exc(5)),
	}
	assert.Equal(t, []bool{false, false, false, true}, spikes)
	assert.Equal(t, NoBlocking, nrn.BlockingPeriod)
}

func TestBlockingLatch(t *testing.T) {
	for _, kind := range []NeuronKinds{BLIFAT, AltAILIF} {
		t.Run(kind.String(), func(t *testing.T) {
			nrn := NewNeuron()
			spikes := []bool{cycle(t, kind, &nrn, imp(core.Blocking, 2), exc(5))}
			for i := 0; i < 5; i++ {
				spikes = append(spikes, cycle(t, kind, &nrn, exc(5)))
			}
			assert.Equal(t, []bool{true, true, false, false, false, false}, spikes)
			assert.Equal(t, int64(0), nrn.BlockingPeriod)
		})
	}
}

func TestAltaiBlocking(t *testing.T) {
	tests := []struct {
		name     string
		leak     float32
		start    float32
		block    float32
		wantPot  float32
		wantTime int64
		spike    bool
	}{
		{"blocked discards input and leak", 1, 0, -3, 0, -2, false},
		{"block ends", 1, 0, -1, 0, NoBlocking, false},
		{"counting down still spikes", 0, 0, 3, 0, 2, true},
		{"restores saved potential", 0, 4, -2, 4, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nrn := NewNeuron()
			nrn.Altai.ActivationThreshold = 5
			nrn.Altai.PotentialLeak = tt.leak
			nrn.Potential = tt.start
			spiked := cycle(t, AltAILIF, &nrn, imp(core.Blocking, tt.block), exc(6))
			assert.Equal(t, tt.spike, spiked)
			assert.Equal(t, tt.wantPot, nrn.Potential)
			assert.Equal(t, tt.wantTime, nrn.BlockingPeriod)
		})
	}
}

func TestBlockingMerge(t *testing.T) {
	nrn := NewNeuron()
	cycle(t, BLIFAT, &nrn, imp(core.Blocking, -2), imp(core.Blocking, 5))
	assert.Equal(t, int64(4), nrn.BlockingPeriod)

	nrn = NewNeuron()
	cycle(t, BLIFAT, &nrn, imp(core.Blocking, 3), imp(core.Blocking, -3))
	assert.Equal(t, int64(-2), nrn.BlockingPeriod)

	// same sign, smaller magnitude: the running block is kept
	nrn = NewNeuron()
	cycle(t, BLIFAT, &nrn, imp(core.Blocking, -5))
	assert.Equal(t, int64(-4), nrn.BlockingPeriod)
	cycle(t, BLIFAT, &nrn, imp(core.Blocking, -2))
	assert.Equal(t, int64(-3), nrn.BlockingPeriod)
}

func TestAltaiSpikeAndSaturate(t *testing.T) {
	nrn := NewNeuron()
	assert.True(t, cycle(t, AltAILIF, &nrn, exc(1)))
	assert.Equal(t, float32(0), nrn.Potential)

	assert.False(t, cycle(t, AltAILIF, &nrn, imp(core.InhibitoryCurrent, 40000)))
	assert.Equal(t, float32(-30000), nrn.Potential)
}

func TestAltaiLeak(t *testing.T) {
	nrn := NewNeuron()
	nrn.Altai.ActivationThreshold = 10
	nrn.Altai.PotentialLeak = 1
	assert.False(t, cycle(t, AltAILIF, &nrn, exc(3)))
	assert.False(t, cycle(t, AltAILIF, &nrn))
	assert.Equal(t, float32(5), nrn.Potential)
}

func TestAltaiDiff(t *testing.T) {
	nrn := NewNeuron()
	nrn.Altai.IsReset = false
	nrn.Altai.IsDiff = true
	assert.True(t, cycle(t, AltAILIF, &nrn, exc(3)))
	assert.Equal(t, float32(2), nrn.Potential)
}

func TestAltaiDoNotSave(t *testing.T) {
	nrn := NewNeuron()
	nrn.Altai.ActivationThreshold = 10
	nrn.Altai.DoNotSave = true
	cycle(t, AltAILIF, &nrn, exc(3))
	assert.Equal(t, float32(3), nrn.Potential)
	cycle(t, AltAILIF, &nrn, exc(4))
	assert.Equal(t, float32(4), nrn.Potential)
}

func TestUnsupportedImpact(t *testing.T) {
	nrn := NewNeuron()
	PreImpact(AltAILIF, &nrn)
	ic := imp(core.InhibitoryConductance, 1)
	assert.ErrorIs(t, ApplyImpact(AltAILIF, &nrn, &ic, false), ErrUnsupportedImpact)

	bad := imp(core.OutputTypes(42), 1)
	assert.ErrorIs(t, ApplyImpact(BLIFAT, &nrn, &bad, false), ErrUnsupportedImpact)

	assert.ErrorIs(t, ApplyImpact(NeuronKindsN, &nrn, &ic, false), ErrUnknownNeuronKind)
}

func TestForcing(t *testing.T) {
	nrn := NewNeuron()
	PreImpact(ResourceBLIFAT, &nrn)
	e := exc(0.1)
	require.NoError(t, ApplyImpact(ResourceBLIFAT, &nrn, &e, true))
	assert.True(t, nrn.IsBeingForced)
	nrn.DopamineValue = 3
	PreImpact(ResourceBLIFAT, &nrn)
	assert.False(t, nrn.IsBeingForced)
	assert.Equal(t, float32(0), nrn.DopamineValue)

	// non-plastic kinds ignore forcing
	nrn = NewNeuron()
	require.NoError(t, ApplyImpact(BLIFAT, &nrn, &e, true))
	assert.False(t, nrn.IsBeingForced)
}

func TestPopulationPhases(t *testing.T) {
	pop, err := NewPopulation(core.NilUID, BLIFAT, 4, nil)
	require.NoError(t, err)
	assert.False(t, pop.UID.IsNil())

	msg := &core.SynapticImpactMessage{Impacts: []core.SynapticImpact{
		{PostsynapticNeuronIndex: 1, ImpactValue: 2, OutputType: core.Excitatory},
		{PostsynapticNeuronIndex: 3, ImpactValue: 1, OutputType: core.Excitatory},
	}}
	pop.CalcPreImpact(0, pop.Len())
	require.NoError(t, pop.ApplyImpacts([]*core.SynapticImpactMessage{msg}))
	spikes := pop.CalcPostImpact(0, 2, nil)
	spikes = pop.CalcPostImpact(2, 4, spikes)
	assert.Equal(t, []uint32{1, 3}, spikes)

	msg.Impacts[0].PostsynapticNeuronIndex = 10
	assert.Error(t, pop.ApplyImpacts([]*core.SynapticImpactMessage{msg}))

	_, err = NewPopulation(core.NilUID, NeuronKindsN, 1, nil)
	assert.ErrorIs(t, err, ErrUnknownNeuronKind)
}

func TestKindNames(t *testing.T) {
	var nk NeuronKinds
	require.NoError(t, nk.FromString("resourcealtailif"))
	assert.Equal(t, ResourceAltAILIF, nk)
	assert.True(t, nk.IsPlastic())
	assert.True(t, nk.IsAltAI())
	assert.ErrorIs(t, nk.FromString("izhikevich"), ErrUnknownNeuronKind)

	var sk SynapseKinds
	require.NoError(t, sk.FromString("AdditiveSTDPDelta"))
	assert.Equal(t, AdditiveSTDPDelta, sk)
	assert.ErrorIs(t, sk.FromString("x"), ErrUnknownSynapseKind)
}
