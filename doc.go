// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spiking is the overall repository for a discrete-time spiking neural
network simulator implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is organized
into the following sub-repositories:

* core: identities, message types and synaptic output types shared by everything else.

* bus: the in-process message bus. Endpoints subscribe to senders by message type,
and messages sent during a phase are routed in one batch.

* snn: neuron models (BLIFAT and AltAI LIF, each optionally trained by the
synaptic resource STDP engine), populations, projections with their delay queue,
and the plasticity rules (resource STDP and additive STDP).

* backend: steps a network in phases, with a single-threaded scheduler and a
multi-threaded one that gives identical results.

* input, monitor: external spike sources, and observers such as the spike raster.

* config, storage: YAML network descriptions and SQLite persistence of runs.

* examples: these compile into runnable programs. examples/selfloop runs a network
described in YAML from the command line.
*/
package spiking
