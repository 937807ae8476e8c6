// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package snn holds the state and the per-step algorithms of a spiking neural
network: neurons organized in Populations, synapses organized in Projections,
the delay queue that turns spikes into future synaptic impacts, and the
synaptic-resource STDP engine.

Every neuron is updated in three phases each step:

  - PreImpact: decay and refresh of the state that does not depend on this
    step's input, saving the pre-impact potential.
  - ApplyImpact: accumulation of the synaptic impacts due this step.
  - PostImpact: blocking, conductance-based inhibition, threshold test,
    reset and post-spike bookkeeping. Returns true if the neuron spiked.

The model families are a closed set (NeuronKinds), dispatched by a switch on
the kind of the population. Synapse behavior (SynapseKinds) is captured in a
Rule strategy selected once when the projection is built.

The step number is always passed explicitly; nothing in this package reads
global state.
*/
package snn
