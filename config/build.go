// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"

	"github.com/emer/spiking/backend"
	"github.com/emer/spiking/core"
	"github.com/emer/spiking/input"
	"github.com/emer/spiking/logger"
	"github.com/emer/spiking/snn"
	"gopkg.in/yaml.v3"
)

// Built is a network ready to be loaded into a backend.
type Built struct {
	Name  string
	Pops  []*snn.Population
	Projs []*snn.Projection

	// UIDs maps population and projection names to uids.
	UIDs map[string]core.UID

	// Names maps uids back to names, including input channels once attached.
	Names map[core.UID]string

	// Inputs lists the uids of projections fed from input channels.
	Inputs []core.UID

	Run Run
}

// decodeNode decodes a parameter block over the values already in out.
func decodeNode(nd *yaml.Node, out any) error {
	if nd == nil || nd.Kind == 0 {
		return nil
	}
	return nd.Decode(out)
}

// Build creates the populations and projections of the description.
func (nw *Network) Build() (*Built, error) {
	bt := &Built{
		Name:  nw.Name,
		UIDs:  make(map[string]core.UID),
		Names: make(map[core.UID]string),
		Run:   nw.Run,
	}
	for i := range nw.Populations {
		pop, err := nw.buildPopulation(&nw.Populations[i])
		if err != nil {
			return nil, err
		}
		bt.Pops = append(bt.Pops, pop)
		bt.UIDs[pop.Name] = pop.UID
		bt.Names[pop.UID] = pop.Name
	}
	for i := range nw.Projections {
		cpj := &nw.Projections[i]
		pj, err := nw.buildProjection(cpj, bt.UIDs)
		if err != nil {
			return nil, err
		}
		bt.Projs = append(bt.Projs, pj)
		bt.UIDs[pj.Name] = pj.UID
		bt.Names[pj.UID] = pj.Name
		if cpj.Pre == InputName {
			bt.Inputs = append(bt.Inputs, pj.UID)
		}
	}
	return bt, nil
}

func (nw *Network) buildPopulation(cp *Population) (*snn.Population, error) {
	var nk snn.NeuronKinds
	if err := nk.FromString(cp.Kind); err != nil {
		return nil, fmt.Errorf("%w: population %q: %w", ErrInvalidConfig, cp.Name, err)
	}
	tmpl := snn.NewNeuron()
	if err := decodeNode(&cp.Blifat, &tmpl.Blifat); err != nil {
		return nil, fmt.Errorf("%w: population %q: blifat: %w", ErrInvalidConfig, cp.Name, err)
	}
	if err := decodeNode(&cp.Altai, &tmpl.Altai); err != nil {
		return nil, fmt.Errorf("%w: population %q: altai: %w", ErrInvalidConfig, cp.Name, err)
	}
	if err := decodeNode(&cp.Resource, &tmpl.Resource); err != nil {
		return nil, fmt.Errorf("%w: population %q: resource: %w", ErrInvalidConfig, cp.Name, err)
	}
	tmpl.InitState()
	pop, err := snn.NewPopulation(core.NilUID, nk, cp.Size, func(int) snn.Neuron { return tmpl })
	if err != nil {
		return nil, err
	}
	pop.Name = cp.Name
	return pop, nil
}

func (nw *Network) buildProjection(cp *Projection, uids map[string]core.UID) (*snn.Projection, error) {
	errf := func(format string, args ...any) error {
		return fmt.Errorf("%w: projection %q: %s", ErrInvalidConfig, cp.Name, fmt.Sprintf(format, args...))
	}
	wrap := func(err error) error {
		return fmt.Errorf("%w: projection %q: %w", ErrInvalidConfig, cp.Name, err)
	}
	var sk snn.SynapseKinds
	if err := sk.FromString(cp.Kind); err != nil {
		return nil, errf("%v", err)
	}
	var ot core.OutputTypes
	if err := ot.FromString(cp.Output); err != nil {
		return nil, errf("%v", err)
	}
	tmpl := snn.NewSynapse(cp.Weight, cp.Delay, 0, 0)
	tmpl.OutputType = ot
	if err := decodeNode(&cp.Resource, &tmpl.Resource); err != nil {
		return nil, errf("resource: %v", err)
	}
	if err := decodeNode(&cp.Additive, &tmpl.Additive); err != nil {
		return nil, errf("additive: %v", err)
	}

	mk := func(pre, post uint32, w float32) (snn.Synapse, error) {
		sy := tmpl
		sy.Pre, sy.Post = pre, post
		sy.Weight = w
		if sk == snn.ResourceSTDPDelta {
			if err := sy.SetWeight(w); err != nil {
				return sy, err
			}
		}
		return sy, nil
	}

	preN := nw.PreSize(cp)
	postN := 0
	if post := nw.Population(cp.Post); post != nil {
		postN = post.Size
	}
	var syns []snn.Synapse
	switch cp.Connect {
	case AllToAll:
		for pi := 0; pi < preN; pi++ {
			for ri := 0; ri < postN; ri++ {
				sy, err := mk(uint32(pi), uint32(ri), cp.Weight)
				if err != nil {
					return nil, wrap(err)
				}
				syns = append(syns, sy)
			}
		}
	case OneToOne:
		for i := 0; i < postN; i++ {
			sy, err := mk(uint32(i), uint32(i), cp.Weight)
			if err != nil {
				return nil, wrap(err)
			}
			syns = append(syns, sy)
		}
	case Explicit:
		for si, csy := range cp.Synapses {
			w := cp.Weight
			if csy.Weight != nil {
				w = *csy.Weight
			}
			sy, err := mk(csy.Pre, csy.Post, w)
			if err != nil {
				return nil, wrap(fmt.Errorf("synapse %d: %w", si, err))
			}
			if csy.Delay != nil {
				sy.Delay = *csy.Delay
			}
			if csy.Output != "" {
				if err := sy.OutputType.FromString(csy.Output); err != nil {
					return nil, errf("synapse %d: %v", si, err)
				}
			}
			syns = append(syns, sy)
		}
	default:
		return nil, errf("unknown connect %q", cp.Connect)
	}

	pre := core.NilUID
	if cp.Pre != InputName {
		pre = uids[cp.Pre]
	}
	pj, err := snn.NewProjection(core.NilUID, pre, uids[cp.Post], sk, len(syns), func(i int) (snn.Synapse, bool) {
		return syns[i], true
	})
	if err != nil {
		return nil, err
	}
	pj.Name = cp.Name
	pj.Locked = cp.Locked
	if len(cp.STDP) > 0 {
		pj.STDPPopulations = make(map[core.UID]snn.ProcessingTypes, len(cp.STDP))
		for pnm, pt := range cp.STDP {
			var ptyp snn.ProcessingTypes
			if err := ptyp.FromString(pt); err != nil {
				return nil, errf("%v", err)
			}
			pj.STDPPopulations[uids[pnm]] = ptyp
		}
	}
	return pj, nil
}

// Generator returns the input generator of an input entry.
func (in *Input) Generator() input.Generator {
	if len(in.Schedule) > 0 {
		sched := make(map[core.Step][]uint32, len(in.Schedule))
		for st, idxs := range in.Schedule {
			sched[core.Step(st)] = idxs
		}
		return input.Schedule(sched)
	}
	return input.Periodic(core.Step(in.Period), core.Step(in.Offset), in.Neurons...)
}

// NewBackend creates a backend with the settings of bt.Run, loads and
// initializes the network, and attaches one input channel per configured
// input. The returned channels are owned by the caller.
func (bt *Built) NewBackend() (*backend.Backend, []*input.Channel, error) {
	var sched backend.Schedulers
	if err := sched.FromString(bt.Run.Scheduler); err != nil {
		return nil, nil, fmt.Errorf("%w: run: %w", ErrInvalidConfig, err)
	}
	b := backend.New(bt.Name, sched, bt.Run.Threads)
	if bt.Run.PopulationPartSize > 0 {
		b.PopulationPartSize = bt.Run.PopulationPartSize
	}
	if bt.Run.ProjectionPartSize > 0 {
		b.ProjectionPartSize = bt.Run.ProjectionPartSize
	}
	if bt.Run.Learning != nil && !*bt.Run.Learning {
		b.StopLearning()
	}
	if err := b.LoadPopulations(bt.Pops...); err != nil {
		return nil, nil, err
	}
	if err := b.LoadProjections(bt.Projs...); err != nil {
		return nil, nil, err
	}
	if err := b.Init(); err != nil {
		return nil, nil, err
	}

	var chans []*input.Channel
	for i := range bt.Run.Inputs {
		in := &bt.Run.Inputs[i]
		uid, ok := bt.UIDs[in.Projection]
		if !ok {
			b.Stop()
			return nil, nil, fmt.Errorf("%w: run: unknown input projection %q", ErrInvalidConfig, in.Projection)
		}
		ch := input.NewChannel(b.Bus(), in.Generator())
		if err := b.Subscribe(uid, ch.UID); err != nil {
			b.Stop()
			return nil, nil, err
		}
		b.AddPreStepHook(ch.Hook())
		bt.Names[ch.UID] = InputName + ":" + in.Projection
		chans = append(chans, ch)
	}
	logger.Info("network built", "name", bt.Name, "populations", len(bt.Pops), "projections", len(bt.Projs), "inputs", len(chans))
	return b, chans, nil
}
