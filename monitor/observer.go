// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package monitor observes a running network from outside the backend:
MessageObserver drains the messages of chosen senders every step, Raster
records spikes into an etable that can be written as CSV, and KWTARandom
limits the number of winners of a spike message.
*/
package monitor

import (
	"github.com/emer/spiking/bus"
	"github.com/emer/spiking/core"
)

// MessageObserver receives the messages of type T sent by a set of senders
// and passes them to Process on every Update.
type MessageObserver[T core.Message] struct {
	UID     core.UID
	Type    core.MessageTypes
	Process func(msgs []T, step core.Step) error

	ep *bus.Endpoint
}

// NewMessageObserver attaches a new observer to the bus.
func NewMessageObserver[T core.Message](b *bus.Bus, typ core.MessageTypes, senders []core.UID, proc func(msgs []T, step core.Step) error) *MessageObserver[T] {
	ob := &MessageObserver[T]{UID: core.NewUID(), Type: typ, Process: proc, ep: b.NewEndpoint()}
	ob.ep.Subscribe(typ, ob.UID, senders...)
	return ob
}

// NewSpikeObserver observes the spike messages of the senders.
func NewSpikeObserver(b *bus.Bus, senders []core.UID, proc func(msgs []*core.SpikeMessage, step core.Step) error) *MessageObserver[*core.SpikeMessage] {
	return NewMessageObserver[*core.SpikeMessage](b, core.SpikeMsg, senders, proc)
}

// NewImpactObserver observes the impact messages of the senders.
func NewImpactObserver(b *bus.Bus, senders []core.UID, proc func(msgs []*core.SynapticImpactMessage, step core.Step) error) *MessageObserver[*core.SynapticImpactMessage] {
	return NewMessageObserver[*core.SynapticImpactMessage](b, core.ImpactMsg, senders, proc)
}

// AddSenders extends the set of observed senders.
func (ob *MessageObserver[T]) AddSenders(senders ...core.UID) {
	ob.ep.Subscribe(ob.Type, ob.UID, senders...)
}

// Update processes all the messages routed since the last call.
func (ob *MessageObserver[T]) Update(step core.Step) error {
	ob.ep.ReceiveAllMessages()
	msgs := bus.Unload[T](ob.ep, ob.Type, ob.UID)
	if ob.Process == nil || len(msgs) == 0 {
		return nil
	}
	return ob.Process(msgs, step)
}

// Close detaches the observer from the bus.
func (ob *MessageObserver[T]) Close() {
	ob.ep.Bus().RemoveEndpoint(ob.ep)
}
