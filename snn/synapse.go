// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"strings"

	"github.com/emer/spiking/core"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// Synapse is one connection of a projection.
type Synapse struct {
	Weight     float32          `desc:"impact value sent on each presynaptic spike"`
	Delay      uint32           `desc:"steps from the presynaptic spike to the impact; 0 is treated as 1"`
	OutputType core.OutputTypes `desc:"effect of the impact on the target neuron"`
	Pre        uint32           `desc:"presynaptic neuron index"`
	Post       uint32           `desc:"postsynaptic neuron index"`

	Resource ResourceRule `desc:"synaptic resource STDP state, for ResourceSTDPDelta projections"`
	Additive AdditiveRule `desc:"additive STDP state, for AdditiveSTDPDelta projections"`
}

// NewSynapse returns an excitatory delta synapse with default rule parameters.
func NewSynapse(weight float32, delay uint32, pre, post uint32) Synapse {
	sy := Synapse{Weight: weight, Delay: delay, OutputType: core.Excitatory, Pre: pre, Post: post}
	sy.Resource.Defaults()
	sy.Additive.Defaults()
	return sy
}

// ResourceRule is the per-synapse state of the synaptic resource STDP rule.
// The weight is a function of the resource: WMin + d*r/(d + r), with
// d = WMax - WMin and r the non-negative part of SynapticResource.
type ResourceRule struct {
	SynapticResource         float32   `def:"0" desc:"resource attached to the synapse"`
	WMin                     float32   `def:"0" desc:"weight with no resource"`
	WMax                     float32   `def:"1" desc:"asymptotic weight with infinite resource"`
	DU                       float32   `def:"0" desc:"resource drained from the synapse on each non-forced postsynaptic spike"`
	DopaminePlasticityPeriod uint64    `def:"0" desc:"window in steps before the current step in which an arrived presynaptic spike counts as having contributed to a postsynaptic spike"`
	LastSpikeStep            core.Step `desc:"step of the last presynaptic spike"`
	HadHebbianUpdate         bool      `desc:"true if this synapse got its hebbian update in the current ISI sequence"`
	HasContributed           bool      `desc:"true if the last presynaptic spike arrived within the ISI window of the postsynaptic spike"`
	Primed                   bool      `desc:"true once LastSpikeStep has been set by the first backend Init"`
}

func (rr *ResourceRule) Defaults() {
	rr.SynapticResource = 0
	rr.WMin = 0
	rr.WMax = 1
	rr.DU = 0
	rr.DopaminePlasticityPeriod = 0
	rr.LastSpikeStep = 0
	rr.HadHebbianUpdate = false
	rr.HasContributed = false
	rr.Primed = false
}

// WeightOf returns the weight for the current resource.
func (rr *ResourceRule) WeightOf() float32 {
	diff := rr.WMax - rr.WMin
	r := mat32.Max(rr.SynapticResource, 0)
	if diff+r == 0 {
		return rr.WMin
	}
	return rr.WMin + diff*r/(diff+r)
}

// AdditiveRule is the per-synapse state of the additive STDP rule: bounded
// queues of the presynaptic and postsynaptic spike times.
type AdditiveRule struct {
	TauPlus   uint32      `def:"10" desc:"time constant of potentiation, in steps"`
	TauMinus  uint32      `def:"10" desc:"time constant of depression, in steps"`
	APlus     float32     `def:"1" desc:"amplitude of potentiation"`
	AMinus    float32     `def:"1" desc:"amplitude of depression"`
	PreTimes  []core.Step `desc:"presynaptic spike times"`
	PostTimes []core.Step `desc:"postsynaptic spike times"`
}

func (ar *AdditiveRule) Defaults() {
	ar.TauPlus = 10
	ar.TauMinus = 10
	ar.APlus = 1
	ar.AMinus = 1
	ar.PreTimes = nil
	ar.PostTimes = nil
}

// Period is the capacity of each spike time queue.
func (ar *AdditiveRule) Period() int { return int(ar.TauPlus + ar.TauMinus) }

//////////////////////////////////////////////////////////////////////
// Enums

// SynapseKinds are the supported synapse models.
type SynapseKinds int32

//go:generate stringer -type=SynapseKinds

var KiT_SynapseKinds = kit.Enums.AddEnum(SynapseKindsN, false, nil)

func (ev SynapseKinds) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *SynapseKinds) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Delta synapses send their weight with a delay and never learn.
	Delta SynapseKinds = iota

	// ResourceSTDPDelta synapses are trained by the synaptic resource STDP
	// engine of their postsynaptic population.
	ResourceSTDPDelta

	// AdditiveSTDPDelta synapses are trained by the additive STDP kernel.
	AdditiveSTDPDelta

	SynapseKindsN
)

var synapseKindNames = [...]string{"Delta", "ResourceSTDPDelta", "AdditiveSTDPDelta"}

func (ev SynapseKinds) String() string {
	if ev < 0 || ev >= SynapseKindsN {
		return fmt.Sprintf("SynapseKinds(%d)", int32(ev))
	}
	return synapseKindNames[ev]
}

// FromString sets the value from its name, case-insensitively.
func (ev *SynapseKinds) FromString(s string) error {
	for i, nm := range synapseKindNames {
		if strings.EqualFold(nm, s) {
			*ev = SynapseKinds(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSynapseKind, s)
}

// ProcessingTypes select how an additive STDP projection treats spikes
// from one of its STDP populations.
type ProcessingTypes int32

//go:generate stringer -type=ProcessingTypes

var KiT_ProcessingTypes = kit.Enums.AddEnum(ProcessingTypesN, false, nil)

func (ev ProcessingTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ProcessingTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// STDPOnly spikes update the spike histories but produce no impacts.
	STDPOnly ProcessingTypes = iota

	// STDPAndSpike spikes update the histories and are transmitted.
	STDPAndSpike

	ProcessingTypesN
)

func (ev ProcessingTypes) String() string {
	switch ev {
	case STDPOnly:
		return "STDPOnly"
	case STDPAndSpike:
		return "STDPAndSpike"
	}
	return fmt.Sprintf("ProcessingTypes(%d)", int32(ev))
}

// FromString sets the value from its name, case-insensitively.
func (ev *ProcessingTypes) FromString(s string) error {
	switch {
	case strings.EqualFold(s, "STDPOnly"):
		*ev = STDPOnly
	case strings.EqualFold(s, "STDPAndSpike"):
		*ev = STDPAndSpike
	default:
		return fmt.Errorf("snn.ProcessingTypes: %q is not a valid value", s)
	}
	return nil
}
