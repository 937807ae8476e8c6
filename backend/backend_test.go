// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"math/rand"
	"testing"

	"github.com/emer/spiking/core"
	"github.com/emer/spiking/input"
	"github.com/emer/spiking/snn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var selfLoopSpikes = []core.Step{1, 6, 7, 11, 12, 13, 16, 17, 18, 19}

// loopNet is one neuron with an input projection (delay 1) and a self
// loop (delay 6).
type loopNet struct {
	pop    *snn.Population
	inPj   *snn.Projection
	loopPj *snn.Projection
}

func newLoopNet(t *testing.T, nk snn.NeuronKinds, inKind, loopKind snn.SynapseKinds) *loopNet {
	t.Helper()
	pop, err := snn.NewPopulation(core.NilUID, nk, 1, func(idx int) snn.Neuron {
		nrn := snn.NewNeuron()
		nrn.Resource.SynapticResourceThreshold = 1
		nrn.Resource.InitFreeResource = 2
		nrn.Resource.ISIMax = 0
		nrn.InitState()
		return nrn
	})
	require.NoError(t, err)

	mkSyn := func(delay uint32, du float32) snn.Synapse {
		sy := snn.NewSynapse(1, delay, 0, 0)
		sy.Resource.WMin = 1
		sy.Resource.WMax = 2
		sy.Resource.DU = du
		sy.Weight = sy.Resource.WeightOf()
		sy.Additive.TauPlus = 1
		sy.Additive.TauMinus = 1
		return sy
	}
	inPj, err := snn.NewProjection(core.NilUID, core.NilUID, pop.UID, inKind, 1, func(int) (snn.Synapse, bool) {
		return mkSyn(1, 0.1), true
	})
	require.NoError(t, err)
	loopPj, err := snn.NewProjection(core.NilUID, pop.UID, pop.UID, loopKind, 1, func(int) (snn.Synapse, bool) {
		return mkSyn(6, 0), true
	})
	require.NoError(t, err)
	if loopKind == snn.AdditiveSTDPDelta {
		loopPj.STDPPopulations = map[core.UID]snn.ProcessingTypes{pop.UID: snn.STDPAndSpike}
	}
	return &loopNet{pop: pop, inPj: inPj, loopPj: loopPj}
}

// run loads the network into b, feeds input every 5 steps and returns the
// spike steps of the neuron over 20 steps.
func (ln *loopNet) run(t *testing.T, b *Backend) []core.Step {
	t.Helper()
	require.NoError(t, b.LoadPopulations(ln.pop))
	require.NoError(t, b.LoadProjections(ln.inPj, ln.loopPj))
	require.NoError(t, b.Init())

	ch := input.NewChannel(b.Bus(), input.Periodic(5, 0, 0))
	require.NoError(t, b.Subscribe(ln.inPj.UID, ch.UID))
	b.AddPreStepHook(ch.Hook())

	rec := b.Bus().NewEndpoint()
	rcv := core.NewUID()
	rec.Subscribe(core.SpikeMsg, rcv, ln.pop.UID)

	require.NoError(t, b.RunSteps(20))
	assert.Equal(t, core.Step(20), b.CurStep())
	rec.ReceiveAllMessages()
	var steps []core.Step
	for _, msg := range rec.UnloadSpikes(rcv) {
		steps = append(steps, msg.SendTime)
	}
	return steps
}

func newBackend(sched Schedulers) *Backend {
	if sched == MultiThreaded {
		b := NewMultiThreaded("test", 4)
		b.PopulationPartSize = 1
		b.ProjectionPartSize = 1
		return b
	}
	return NewSingleThreaded("test")
}

func TestSelfLoopDelta(t *testing.T) {
	for _, sched := range []Schedulers{SingleThreaded, MultiThreaded} {
		t.Run(sched.String(), func(t *testing.T) {
			ln := newLoopNet(t, snn.BLIFAT, snn.Delta, snn.Delta)
			b := newBackend(sched)
			defer b.Stop()
			assert.Equal(t, selfLoopSpikes, ln.run(t, b))
			assert.Equal(t, float32(1), ln.loopPj.Synapses[0].Weight)
		})
	}
}

func TestSelfLoopResource(t *testing.T) {
	for _, nk := range []snn.NeuronKinds{snn.ResourceBLIFAT, snn.ResourceAltAILIF} {
		for _, sched := range []Schedulers{SingleThreaded, MultiThreaded} {
			t.Run(nk.String()+"/"+sched.String(), func(t *testing.T) {
				ln := newLoopNet(t, nk, snn.ResourceSTDPDelta, snn.ResourceSTDPDelta)
				before := ln.loopPj.Synapses[0].Weight
				b := newBackend(sched)
				defer b.Stop()
				assert.Equal(t, selfLoopSpikes, ln.run(t, b))
				after := ln.loopPj.Synapses[0]
				assert.NotEqual(t, before, after.Weight)
				assert.InDelta(t, after.Resource.WeightOf(), after.Weight, 1e-6)
			})
		}
	}
}

func TestSelfLoopAdditive(t *testing.T) {
	for _, sched := range []Schedulers{SingleThreaded, MultiThreaded} {
		t.Run(sched.String(), func(t *testing.T) {
			ln := newLoopNet(t, snn.BLIFAT, snn.Delta, snn.AdditiveSTDPDelta)
			b := newBackend(sched)
			defer b.Stop()
			assert.Equal(t, selfLoopSpikes, ln.run(t, b))
			assert.Greater(t, ln.loopPj.Synapses[0].Weight, float32(1))
		})
	}
}

func TestReinitKeepsResourceState(t *testing.T) {
	ln := newLoopNet(t, snn.ResourceBLIFAT, snn.ResourceSTDPDelta, snn.ResourceSTDPDelta)
	b := NewSingleThreaded("reinit")
	assert.Equal(t, selfLoopSpikes, ln.run(t, b))
	last := ln.loopPj.Synapses[0].Resource.LastSpikeStep
	assert.Equal(t, core.Step(19), last)

	b.Stop()
	assert.Equal(t, Uninitialized, b.State())
	require.NoError(t, b.Init())
	assert.Equal(t, last, ln.loopPj.Synapses[0].Resource.LastSpikeStep)
	assert.True(t, ln.loopPj.Synapses[0].Resource.Primed)

	// a projection loaded later is primed at the current step
	pj, err := snn.NewProjection(core.NilUID, ln.pop.UID, ln.pop.UID, snn.ResourceSTDPDelta, 1, func(int) (snn.Synapse, bool) {
		return snn.NewSynapse(1, 2, 0, 0), true
	})
	require.NoError(t, err)
	require.NoError(t, b.LoadProjections(pj))
	require.NoError(t, b.Init())
	assert.Equal(t, b.CurStep(), pj.Synapses[0].Resource.LastSpikeStep)
	assert.Equal(t, last, ln.loopPj.Synapses[0].Resource.LastSpikeStep)
}

func TestStopLearning(t *testing.T) {
	ln := newLoopNet(t, snn.ResourceBLIFAT, snn.ResourceSTDPDelta, snn.ResourceSTDPDelta)
	before := ln.loopPj.Synapses[0].Weight
	b := NewSingleThreaded("frozen")
	b.StopLearning()
	assert.False(t, b.IsLearning())
	assert.Equal(t, selfLoopSpikes, ln.run(t, b))
	assert.Equal(t, before, ln.loopPj.Synapses[0].Weight)
}

func TestStates(t *testing.T) {
	b := NewSingleThreaded("states")
	assert.Equal(t, Uninitialized, b.State())
	assert.ErrorIs(t, b.Step(), ErrNotInitialized)
	require.NoError(t, b.Init())
	assert.Equal(t, Ready, b.State())
	assert.ErrorIs(t, b.Init(), ErrAlreadyInitialized)
	require.NoError(t, b.Step())
	assert.Equal(t, core.Step(1), b.CurStep())

	pop, err := snn.NewPopulation(core.NilUID, snn.BLIFAT, 2, nil)
	require.NoError(t, err)
	require.NoError(t, b.LoadPopulations(pop))
	assert.Equal(t, Uninitialized, b.State())
	assert.Error(t, b.LoadPopulations(pop))

	_, err = b.ProjectionTry(core.NewUID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, b.Subscribe(core.NewUID()), ErrNotFound)

	require.NoError(t, b.RemovePopulations(pop.UID))
	assert.Empty(t, b.Pops)
}

func TestStartPredicate(t *testing.T) {
	b := NewSingleThreaded("start")
	var seen []core.Step
	b.AddPostStepHook(func(step core.Step) error {
		seen = append(seen, step)
		return nil
	})
	require.NoError(t, b.Start(func(step core.Step) bool { return step < 4 }))
	assert.Equal(t, []core.Step{0, 1, 2, 3, 4}, seen)
}

// badNet sends an inhibitory conductance impact to an AltAI neuron.
func badNet(t *testing.T) ([]*snn.Population, []*snn.Projection) {
	t.Helper()
	pre, err := snn.NewPopulation(core.NilUID, snn.BLIFAT, 1, nil)
	require.NoError(t, err)
	post, err := snn.NewPopulation(core.NilUID, snn.AltAILIF, 1, nil)
	require.NoError(t, err)
	pj, err := snn.NewProjection(core.NilUID, core.NilUID, post.UID, snn.Delta, 1, func(int) (snn.Synapse, bool) {
		sy := snn.NewSynapse(1, 1, 0, 0)
		sy.OutputType = core.InhibitoryConductance
		return sy, true
	})
	require.NoError(t, err)
	return []*snn.Population{pre, post}, []*snn.Projection{pj}
}

func TestUnsupportedImpactAbortsStep(t *testing.T) {
	for _, sched := range []Schedulers{SingleThreaded, MultiThreaded} {
		t.Run(sched.String(), func(t *testing.T) {
			pops, projs := badNet(t)
			b := newBackend(sched)
			defer b.Stop()
			require.NoError(t, b.LoadPopulations(pops...))
			require.NoError(t, b.LoadProjections(projs...))
			ch := input.NewChannel(b.Bus(), input.Periodic(1, 0, 0))
			require.NoError(t, b.Init())
			require.NoError(t, b.Subscribe(projs[0].UID, ch.UID))
			b.AddPreStepHook(ch.Hook())

			require.NoError(t, b.Step())
			err := b.Step()
			assert.ErrorIs(t, err, snn.ErrUnsupportedImpact)
			assert.Equal(t, core.Step(1), b.CurStep())
			assert.Equal(t, Ready, b.State())
		})
	}
}

// randomNet builds the same random network for a given seed: three
// populations with random feedforward and recurrent projections, the last
// population plastic.
func randomNet(t *testing.T, seed int64) ([]*snn.Population, []*snn.Projection, *snn.Projection) {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))
	kinds := []snn.NeuronKinds{snn.BLIFAT, snn.AltAILIF, snn.ResourceBLIFAT}
	var pops []*snn.Population
	for _, nk := range kinds {
		pop, err := snn.NewPopulation(core.NilUID, nk, 40, func(int) snn.Neuron {
			nrn := snn.NewNeuron()
			nrn.Blifat.PotentialDecay = 0.5
			nrn.Blifat.ThresholdIncrement = 0.2
			nrn.Blifat.ThresholdDecay = 0.9
			nrn.Resource.ISIMax = 3
			nrn.Resource.SynapticResourceThreshold = 2
			nrn.Resource.DopaminePlasticityTime = 2
			nrn.Resource.SynapseSumThresholdCoefficient = 0.01
			nrn.Altai.PotentialLeak = -1
			nrn.InitState()
			return nrn
		})
		require.NoError(t, err)
		pops = append(pops, pop)
	}
	mk := func(pre, post core.UID, kind snn.SynapseKinds, n int) *snn.Projection {
		pj, err := snn.NewProjection(core.NilUID, pre, post, kind, n, func(int) (snn.Synapse, bool) {
			sy := snn.NewSynapse(0.2+rnd.Float32(), uint32(1+rnd.Intn(4)), uint32(rnd.Intn(40)), uint32(rnd.Intn(40)))
			switch r := rnd.Intn(10); {
			case r == 0:
				sy.OutputType = core.InhibitoryCurrent
			case r == 1 && post != pops[1].UID:
				sy.OutputType = core.InhibitoryConductance
				sy.Weight *= 0.2
			case r == 2:
				sy.OutputType = core.Dopamine
			}
			sy.Resource.WMin = 0.2
			sy.Resource.WMax = 1.5
			sy.Resource.DopaminePlasticityPeriod = 3
			sy.Resource.DU = 0.01
			return sy, true
		})
		require.NoError(t, err)
		return pj
	}
	in := mk(core.NilUID, pops[0].UID, snn.Delta, 60)
	projs := []*snn.Projection{
		in,
		mk(pops[0].UID, pops[1].UID, snn.Delta, 300),
		mk(pops[1].UID, pops[2].UID, snn.ResourceSTDPDelta, 300),
		mk(pops[0].UID, pops[2].UID, snn.Delta, 100),
		mk(pops[2].UID, pops[0].UID, snn.Delta, 200),
	}
	return pops, projs, in
}

func runRandom(t *testing.T, sched Schedulers) ([][]uint32, []float32) {
	pops, projs, in := randomNet(t, 17)
	b := newBackend(sched)
	if sched == MultiThreaded {
		b.PopulationPartSize = 7
		b.ProjectionPartSize = 13
	}
	defer b.Stop()
	require.NoError(t, b.LoadPopulations(pops...))
	require.NoError(t, b.LoadProjections(projs...))
	require.NoError(t, b.Init())

	srnd := rand.New(rand.NewSource(3))
	sched0 := map[core.Step][]uint32{}
	for s := core.Step(0); s < 60; s++ {
		for i := uint32(0); i < 40; i++ {
			if srnd.Intn(3) == 0 {
				sched0[s] = append(sched0[s], i)
			}
		}
	}
	ch := input.NewChannel(b.Bus(), input.Schedule(sched0))
	require.NoError(t, b.Subscribe(in.UID, ch.UID))
	b.AddPreStepHook(ch.Hook())

	rec := b.Bus().NewEndpoint()
	rcv := core.NewUID()
	var raster [][]uint32
	for _, pop := range pops {
		rec.Subscribe(core.SpikeMsg, rcv, pop.UID)
	}
	b.AddPostStepHook(func(step core.Step) error {
		rec.ReceiveAllMessages()
		for _, msg := range rec.UnloadSpikes(rcv) {
			for pi, pop := range pops {
				if pop.UID == msg.SenderUID {
					row := append([]uint32{uint32(step), uint32(pi)}, msg.NeuronIndexes...)
					raster = append(raster, row)
				}
			}
		}
		return nil
	})
	require.NoError(t, b.RunSteps(60))
	var wts []float32
	for _, pj := range projs {
		for _, sy := range pj.Synapses {
			wts = append(wts, sy.Weight)
		}
	}
	return raster, wts
}

func TestSchedulersAgree(t *testing.T) {
	stRaster, stWts := runRandom(t, SingleThreaded)
	mtRaster, mtWts := runRandom(t, MultiThreaded)
	require.NotEmpty(t, stRaster)
	assert.Equal(t, stRaster, mtRaster)
	assert.Equal(t, stWts, mtWts)

	again, _ := runRandom(t, SingleThreaded)
	assert.Equal(t, stRaster, again)
}

func TestNetworkData(t *testing.T) {
	ln := newLoopNet(t, snn.ResourceBLIFAT, snn.ResourceSTDPDelta, snn.ResourceSTDPDelta)
	b := NewSingleThreaded("snap")
	ln.run(t, b)
	nd := b.NetworkData()
	assert.Equal(t, core.Step(20), nd.Step)
	require.Len(t, nd.Pops, 1)
	require.Len(t, nd.Projs, 2)
	nd.Projs[1].Synapses[0].Weight = 100
	nd.Pops[0].Neurons[0].Potential = 100
	assert.NotEqual(t, float32(100), ln.loopPj.Synapses[0].Weight)
	assert.NotEqual(t, float32(100), ln.pop.Neurons[0].Potential)

	rep := b.SizeReport()
	assert.Contains(t, rep, "Neurons: 1")
	assert.Contains(t, rep, "Syns: 2")
	assert.Contains(t, b.TimerReport(), "Populations")
}

func TestSupported(t *testing.T) {
	assert.Len(t, SupportedNeurons(), int(snn.NeuronKindsN))
	assert.Contains(t, SupportedSynapses(), snn.AdditiveSTDPDelta)

	var sc Schedulers
	require.NoError(t, sc.FromString("multi"))
	assert.Equal(t, MultiThreaded, sc)
	assert.Error(t, sc.FromString("gpu"))
}

func TestPool(t *testing.T) {
	pl := NewPool(3)
	pl.Start()
	defer pl.Stop()
	res := make([]int, 10)
	for i := range res {
		i := i
		pl.Post(func() error {
			res[i] = i * i
			return nil
		})
	}
	require.NoError(t, pl.Join())
	assert.Equal(t, 81, res[9])

	pl.Post(func() error { panic("boom") })
	assert.ErrorContains(t, pl.Join(), "boom")
	require.NoError(t, pl.Join())
}

// recordSpikes attaches a spike recorder for uid and returns a function
// that drains it.
func recordSpikes(b *Backend, uid core.UID) func() []core.Step {
	rec := b.Bus().NewEndpoint()
	rcv := core.NewUID()
	rec.Subscribe(core.SpikeMsg, rcv, uid)
	return func() []core.Step {
		rec.ReceiveAllMessages()
		var steps []core.Step
		for _, msg := range rec.UnloadSpikes(rcv) {
			steps = append(steps, msg.SendTime)
		}
		return steps
	}
}

func TestUnsubscribeInput(t *testing.T) {
	ln := newLoopNet(t, snn.BLIFAT, snn.Delta, snn.Delta)
	b := NewSingleThreaded("unsub")
	require.NoError(t, b.LoadPopulations(ln.pop))
	require.NoError(t, b.LoadProjections(ln.inPj, ln.loopPj))
	require.NoError(t, b.Init())
	ch := input.NewChannel(b.Bus(), input.Periodic(5, 0, 0))
	require.NoError(t, b.Subscribe(ln.inPj.UID, ch.UID))
	b.AddPreStepHook(ch.Hook())
	drain := recordSpikes(b, ln.pop.UID)

	require.NoError(t, b.RunSteps(2))
	require.NoError(t, b.Unsubscribe(ln.inPj.UID, ch.UID))
	assert.ErrorIs(t, b.Unsubscribe(core.NewUID(), ch.UID), ErrNotFound)
	require.NoError(t, b.RunSteps(18))
	// only the loop keeps the neuron firing
	assert.Equal(t, []core.Step{1, 7, 13, 19}, drain())
}

func TestRemoveProjection(t *testing.T) {
	ln := newLoopNet(t, snn.BLIFAT, snn.Delta, snn.Delta)
	b := NewSingleThreaded("remove")
	require.NoError(t, b.LoadPopulations(ln.pop))
	require.NoError(t, b.LoadProjections(ln.inPj, ln.loopPj))
	require.NoError(t, b.RemoveProjections(ln.loopPj.UID, core.NewUID()))
	require.Len(t, b.Projs, 1)
	require.NoError(t, b.Init())
	ch := input.NewChannel(b.Bus(), input.Periodic(5, 0, 0))
	require.NoError(t, b.Subscribe(ln.inPj.UID, ch.UID))
	b.AddPreStepHook(ch.Hook())
	drain := recordSpikes(b, ln.pop.UID)

	require.NoError(t, b.RunSteps(20))
	assert.Equal(t, []core.Step{1, 6, 11, 16}, drain())
}
