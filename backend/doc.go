// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package backend runs a network of snn Populations and Projections step by
step, moving spikes and impacts between them over a bus.

Each Step executes, in order:

  - the population phase: pre-impact, delivery of the impacts received from
    the bus, post-impact with spike decision, and resource STDP training,
    for every population; non-empty spike messages are published;
  - bus routing;
  - the projection phase: every projection turns the spikes it received into
    scheduled impacts and publishes the impact messages now due;
  - bus routing;
  - increment of the step counter.

The SingleThreaded scheduler runs every phase inline. The MultiThreaded
scheduler splits each phase into chunks of PopulationPartSize neurons or
ProjectionPartSize synapses that run on a Pool of worker goroutines, with a
barrier after each phase. Both produce the same spike messages.
*/
package backend
