// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/spiking/core"
)

// Population is a homogeneous group of neurons of one kind.
type Population struct {
	UID     core.UID    `desc:"identity of the population, used as the sender of its spike messages"`
	Name    string      `desc:"optional name, for reports"`
	Kind    NeuronKinds `desc:"neuron model of every neuron in the population"`
	Neurons []Neuron    `desc:"the neurons"`
}

// NeuronGen returns the neuron at the given index. It is called once per
// neuron when a population is built.
type NeuronGen func(idx int) Neuron

// NewPopulation builds a population of n neurons. A nil gen gives neurons
// with default parameters, and a nil uid gets a fresh one.
func NewPopulation(uid core.UID, kind NeuronKinds, n int, gen NeuronGen) (*Population, error) {
	if kind < 0 || kind >= NeuronKindsN {
		return nil, fmt.Errorf("%w: %v", ErrUnknownNeuronKind, kind)
	}
	if uid.IsNil() {
		uid = core.NewUID()
	}
	pop := &Population{UID: uid, Kind: kind, Neurons: make([]Neuron, n)}
	for i := range pop.Neurons {
		if gen != nil {
			pop.Neurons[i] = gen(i)
		} else {
			pop.Neurons[i] = NewNeuron()
		}
	}
	return pop, nil
}

// Len returns the number of neurons.
func (pop *Population) Len() int { return len(pop.Neurons) }

// Label returns the name if set, else the uid.
func (pop *Population) Label() string {
	if pop.Name != "" {
		return pop.Name
	}
	return pop.UID.String()
}

// Clone returns a deep copy.
func (pop *Population) Clone() *Population {
	cp := *pop
	cp.Neurons = make([]Neuron, len(pop.Neurons))
	copy(cp.Neurons, pop.Neurons)
	return &cp
}

// CalcPreImpact runs the pre-impact phase over neurons [st, ed).
func (pop *Population) CalcPreImpact(st, ed int) {
	for ni := st; ni < ed; ni++ {
		PreImpact(pop.Kind, &pop.Neurons[ni])
	}
}

// ApplyImpacts applies all the impacts of the messages, in order.
func (pop *Population) ApplyImpacts(msgs []*core.SynapticImpactMessage) error {
	for _, msg := range msgs {
		for i := range msg.Impacts {
			imp := &msg.Impacts[i]
			if int(imp.PostsynapticNeuronIndex) >= len(pop.Neurons) {
				return fmt.Errorf("snn: population %v: impact for neuron %d out of range", pop.Label(), imp.PostsynapticNeuronIndex)
			}
			if err := ApplyImpact(pop.Kind, &pop.Neurons[imp.PostsynapticNeuronIndex], imp, msg.IsForcing); err != nil {
				return err
			}
		}
	}
	return nil
}

// CalcPostImpact runs the post-impact phase over neurons [st, ed) and
// appends the indexes of the neurons that spiked to spikes.
func (pop *Population) CalcPostImpact(st, ed int, spikes []uint32) []uint32 {
	for ni := st; ni < ed; ni++ {
		if PostImpact(pop.Kind, &pop.Neurons[ni]) {
			spikes = append(spikes, uint32(ni))
		}
	}
	return spikes
}
