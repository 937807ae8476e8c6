// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"fmt"

	"github.com/goki/ki/kit"
)

// MessageTypes tags the kinds of messages carried by the bus.
type MessageTypes int32

//go:generate stringer -type=MessageTypes

var KiT_MessageTypes = kit.Enums.AddEnum(MessageTypesN, false, nil)

func (ev MessageTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *MessageTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// SpikeMsg is a SpikeMessage
	SpikeMsg MessageTypes = iota

	// ImpactMsg is a SynapticImpactMessage
	ImpactMsg

	MessageTypesN
)

func (ev MessageTypes) String() string {
	switch ev {
	case SpikeMsg:
		return "SpikeMsg"
	case ImpactMsg:
		return "ImpactMsg"
	}
	return fmt.Sprintf("MessageTypes(%d)", int32(ev))
}

// Message is implemented by everything that travels over the bus.
type Message interface {
	// MsgHeader returns the sender identity and send time.
	MsgHeader() Header

	// MsgType returns the type tag used for subscriptions.
	MsgType() MessageTypes
}

// Header is common to all messages.
type Header struct {
	SenderUID UID
	SendTime  Step
}

// SpikeMessage lists the neurons of the sender population that spiked at SendTime.
type SpikeMessage struct {
	Header
	NeuronIndexes []uint32
}

func (sm *SpikeMessage) MsgHeader() Header     { return sm.Header }
func (sm *SpikeMessage) MsgType() MessageTypes { return SpikeMsg }

// SynapticImpact is one scheduled effect of a synapse on its target neuron.
type SynapticImpact struct {
	SynapseIndex            int
	ImpactValue             float32
	OutputType              OutputTypes
	PresynapticNeuronIndex  uint32
	PostsynapticNeuronIndex uint32
}

// SynapticImpactMessage aggregates all impacts of one projection that arrive
// at the same step. SenderUID is the projection.
type SynapticImpactMessage struct {
	Header
	PresynapticPopulationUID  UID
	PostsynapticPopulationUID UID

	// IsForcing is set by non-plastic projections: their excitatory impacts
	// override the ISI bookkeeping of plastic target neurons.
	IsForcing bool

	Impacts []SynapticImpact
}

func (im *SynapticImpactMessage) MsgHeader() Header     { return im.Header }
func (im *SynapticImpactMessage) MsgType() MessageTypes { return ImpactMsg }
