// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"math"
	"strings"

	"github.com/emer/spiking/core"
	"github.com/goki/ki/kit"
)

// NoBlocking is the blocking timer value of a neuron that is not blocked and
// is not counting down to a block.
const NoBlocking = int64(math.MaxInt64)

// Neuron holds the state and the parameters of one neuron. All model kinds
// share this record; the parameter groups that do not apply to the kind of
// the owning population are ignored.
type Neuron struct {

	////////////////////////////
	// State

	// membrane potential
	Potential float32

	// potential saved at the end of the pre-impact phase -- restored when the neuron is blocked
	PreImpactPotential float32

	// decaying part of the threshold, incremented on every spike
	DynamicThreshold float32

	// threshold component set by the STDP engine from the weights of the synapses feeding the neuron
	AdditionalThreshold float32

	// postsynaptic trace, incremented on every spike
	PostsynapticTrace float32

	// accumulated inhibitory conductance
	InhibitoryConductance float32

	// dopamine received this step
	DopamineValue float32

	// blocking timer: negative = blocked for that many steps, positive = counting down, NoBlocking = free
	BlockingPeriod int64

	// largest-magnitude blocking impact received this step
	PendingBlocking float32

	// true if PendingBlocking holds a value for this step
	HasPendingBlocking bool

	// steps since the last spike, compared against the absolute refractory period
	StepsSinceFiring uint64

	// remaining steps of the current burst
	BurstingPhase uint32

	// true if an excitatory forcing impact arrived this step
	IsBeingForced bool

	////////////////////////////
	// Resource STDP state

	// dampens plasticity: changes are scaled by min(2^-Stability, 1)
	Stability float32

	// synaptic resource not attached to any synapse
	FreeSynapticResource float32

	// interspike interval state
	ISIStatus ISIPeriods

	// step of the last non-forced spike, used for ISI gaps
	LastStep core.Step

	// step of the last spike
	LastSpikeStep core.Step

	// step at which the current ISI sequence began
	FirstISISpike core.Step

	////////////////////////////
	// Parameters

	// parameters of the BLIFAT family
	Blifat BlifatParams

	// parameters of the AltAI LIF family
	Altai AltaiParams

	// parameters of the synaptic resource STDP engine, for plastic kinds
	Resource ResourceParams
}

// NewNeuron returns a neuron in its initial state with default parameters.
func NewNeuron() Neuron {
	nrn := Neuron{}
	nrn.Defaults()
	return nrn
}

// Defaults sets default parameters and the initial state.
func (nrn *Neuron) Defaults() {
	nrn.Blifat.Defaults()
	nrn.Altai.Defaults()
	nrn.Resource.Defaults()
	nrn.InitState()
}

// InitState resets the dynamic state, keeping the parameters.
func (nrn *Neuron) InitState() {
	nrn.Potential = 0
	nrn.PreImpactPotential = 0
	nrn.DynamicThreshold = 0
	nrn.AdditionalThreshold = 0
	nrn.PostsynapticTrace = 0
	nrn.InhibitoryConductance = 0
	nrn.DopamineValue = 0
	nrn.BlockingPeriod = NoBlocking
	nrn.PendingBlocking = 0
	nrn.HasPendingBlocking = false
	nrn.StepsSinceFiring = 0
	nrn.BurstingPhase = 0
	nrn.IsBeingForced = false
	nrn.Stability = 0
	nrn.FreeSynapticResource = nrn.Resource.InitFreeResource
	nrn.ISIStatus = NotInPeriod
	nrn.LastStep = 0
	nrn.LastSpikeStep = 0
	nrn.FirstISISpike = 0
}

// NeuronVars are the float32 state variables that can be read by name,
// e.g., for recording.
var NeuronVars = []string{"Potential", "PreImpactPotential", "DynamicThreshold", "AdditionalThreshold", "PostsynapticTrace", "InhibitoryConductance", "DopamineValue", "Stability", "FreeSynapticResource"}

// VarByName returns a state variable by name, or error
func (nrn *Neuron) VarByName(varNm string) (float32, error) {
	switch varNm {
	case "Potential":
		return nrn.Potential, nil
	case "PreImpactPotential":
		return nrn.PreImpactPotential, nil
	case "DynamicThreshold":
		return nrn.DynamicThreshold, nil
	case "AdditionalThreshold":
		return nrn.AdditionalThreshold, nil
	case "PostsynapticTrace":
		return nrn.PostsynapticTrace, nil
	case "InhibitoryConductance":
		return nrn.InhibitoryConductance, nil
	case "DopamineValue":
		return nrn.DopamineValue, nil
	case "Stability":
		return nrn.Stability, nil
	case "FreeSynapticResource":
		return nrn.FreeSynapticResource, nil
	}
	return float32(math.NaN()), fmt.Errorf("Neuron VarByName: variable name: %v not valid", varNm)
}

//////////////////////////////////////////////////////////////////////
// Enums

// NeuronKinds are the supported neuron models.
type NeuronKinds int32

//go:generate stringer -type=NeuronKinds

var KiT_NeuronKinds = kit.Enums.AddEnum(NeuronKindsN, false, nil)

func (ev NeuronKinds) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *NeuronKinds) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// BLIFAT is the leaky integrate-and-fire neuron with adaptive threshold,
	// inhibitory conductance, bursting and refractoriness.
	BLIFAT NeuronKinds = iota

	// ResourceBLIFAT is BLIFAT trained by the synaptic resource STDP engine.
	ResourceBLIFAT

	// AltAILIF is the integer-style LIF neuron with leak, reset policies and
	// negative saturation.
	AltAILIF

	// ResourceAltAILIF is AltAILIF trained by the synaptic resource STDP engine.
	ResourceAltAILIF

	NeuronKindsN
)

var neuronKindNames = [...]string{"BLIFAT", "ResourceBLIFAT", "AltAILIF", "ResourceAltAILIF"}

func (ev NeuronKinds) String() string {
	if ev < 0 || ev >= NeuronKindsN {
		return fmt.Sprintf("NeuronKinds(%d)", int32(ev))
	}
	return neuronKindNames[ev]
}

// FromString sets the value from its name, case-insensitively.
func (ev *NeuronKinds) FromString(s string) error {
	for i, nm := range neuronKindNames {
		if strings.EqualFold(nm, s) {
			*ev = NeuronKinds(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownNeuronKind, s)
}

// IsPlastic returns true for the kinds trained by the resource STDP engine.
func (ev NeuronKinds) IsPlastic() bool {
	return ev == ResourceBLIFAT || ev == ResourceAltAILIF
}

// IsAltAI returns true for the AltAI LIF family.
func (ev NeuronKinds) IsAltAI() bool {
	return ev == AltAILIF || ev == ResourceAltAILIF
}

// ISIPeriods are the states of the interspike interval machine.
type ISIPeriods int32

//go:generate stringer -type=ISIPeriods

var KiT_ISIPeriods = kit.Enums.AddEnum(ISIPeriodsN, false, nil)

func (ev ISIPeriods) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ISIPeriods) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// NotInPeriod: no spiking sequence yet
	NotInPeriod ISIPeriods = iota

	// PeriodStarted: the last spike began a new sequence
	PeriodStarted

	// PeriodContinued: the last spike continued the current sequence
	PeriodContinued

	// IsForced: the neuron received a forcing impact on the step of its last spike
	IsForced

	ISIPeriodsN
)

func (ev ISIPeriods) String() string {
	switch ev {
	case NotInPeriod:
		return "NotInPeriod"
	case PeriodStarted:
		return "PeriodStarted"
	case PeriodContinued:
		return "PeriodContinued"
	case IsForced:
		return "IsForced"
	}
	return fmt.Sprintf("ISIPeriods(%d)", int32(ev))
}
