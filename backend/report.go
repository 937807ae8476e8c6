// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/c2h5oh/datasize"
	"github.com/emer/spiking/core"
	"github.com/emer/spiking/snn"
)

// NetworkData is a snapshot of the network of a backend.
type NetworkData struct {
	Step  core.Step
	Pops  []*snn.Population
	Projs []*snn.Projection
}

// NetworkData returns deep copies of the populations and projections, safe
// to read while the backend keeps stepping.
func (b *Backend) NetworkData() *NetworkData {
	nd := &NetworkData{Step: b.step}
	for _, pop := range b.Pops {
		nd.Pops = append(nd.Pops, pop.Clone())
	}
	for _, pj := range b.Projs {
		nd.Projs = append(nd.Projs, pj.Clone())
	}
	return nd
}

// SizeReport returns a string reporting the size of each population and
// projection, and the total memory footprint.
func (b *Backend) SizeReport() string {
	var sb strings.Builder
	neur := 0
	neurMem := 0
	syn := 0
	synMem := 0
	for _, pop := range b.Pops {
		nn := pop.Len()
		nmem := nn * int(unsafe.Sizeof(snn.Neuron{}))
		neur += nn
		neurMem += nmem
		fmt.Fprintf(&sb, "%14s:\t Neurons: %d\t NeurMem: %v \t Receives:\n", pop.Label(), nn, (datasize.ByteSize)(nmem).HumanReadable())
		for _, pj := range b.Projs {
			if pj.PostUID != pop.UID {
				continue
			}
			ns := len(pj.Synapses)
			syn += ns
			pmem := ns * int(unsafe.Sizeof(snn.Synapse{}))
			synMem += pmem
			fmt.Fprintf(&sb, "\t%14s:\t Syns: %d\t SynMem: %v\n", pj.Label(), ns, (datasize.ByteSize)(pmem).HumanReadable())
		}
	}
	fmt.Fprintf(&sb, "\n\n%14s:\t Neurons: %d\t NeurMem: %v \t Syns: %d \t SynMem: %v\n", b.Name, neur, (datasize.ByteSize)(neurMem).HumanReadable(), syn, (datasize.ByteSize)(synMem).HumanReadable())
	return sb.String()
}
