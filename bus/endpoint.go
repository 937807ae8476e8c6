// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bus

import (
	"sync"

	"github.com/emer/spiking/core"
)

type subKey struct {
	typ      core.MessageTypes
	receiver core.UID
}

// Subscription collects messages of one type, from a set of senders, on
// behalf of one receiver.
type Subscription struct {
	Type     core.MessageTypes
	Receiver core.UID

	senders map[core.UID]struct{}
	buf     []core.Message
}

// Senders returns the current set of sender UIDs.
func (sb *Subscription) Senders() []core.UID {
	ids := make([]core.UID, 0, len(sb.senders))
	for id := range sb.senders {
		ids = append(ids, id)
	}
	return ids
}

// HasSender returns true if the subscription accepts messages from the sender.
func (sb *Subscription) HasSender(id core.UID) bool {
	_, has := sb.senders[id]
	return has
}

// Endpoint is the point through which an entity sends and receives messages.
type Endpoint struct {
	bus *Bus

	mu    sync.Mutex
	inbox []core.Message
	subs  map[subKey]*Subscription
}

// Bus returns the bus this endpoint is attached to.
func (ep *Endpoint) Bus() *Bus { return ep.bus }

// Subscribe makes receiver collect messages of the given type sent by any of
// the senders. Subscribing again for the same (type, receiver) extends the
// sender set.
func (ep *Endpoint) Subscribe(typ core.MessageTypes, receiver core.UID, senders ...core.UID) *Subscription {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	key := subKey{typ, receiver}
	sb, has := ep.subs[key]
	if !has {
		sb = &Subscription{Type: typ, Receiver: receiver, senders: make(map[core.UID]struct{})}
		ep.subs[key] = sb
	}
	for _, s := range senders {
		sb.senders[s] = struct{}{}
	}
	return sb
}

// Unsubscribe removes the subscription of receiver for the message type,
// dropping any buffered messages. Returns false if there was none.
func (ep *Endpoint) Unsubscribe(typ core.MessageTypes, receiver core.UID) bool {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	key := subKey{typ, receiver}
	if _, has := ep.subs[key]; !has {
		return false
	}
	delete(ep.subs, key)
	return true
}

// RemoveSenders removes senders from an existing subscription.
func (ep *Endpoint) RemoveSenders(typ core.MessageTypes, receiver core.UID, senders ...core.UID) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	sb, has := ep.subs[subKey{typ, receiver}]
	if !has {
		return
	}
	for _, s := range senders {
		delete(sb.senders, s)
	}
}

// Subscription returns the subscription for (type, receiver), or nil.
func (ep *Endpoint) Subscription(typ core.MessageTypes, receiver core.UID) *Subscription {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	return ep.subs[subKey{typ, receiver}]
}

// Send publishes the message on the bus. It becomes visible to subscribers
// after the next RouteMessages and ReceiveAllMessages.
func (ep *Endpoint) Send(msg core.Message) {
	ep.bus.publish(msg)
}

func (ep *Endpoint) deliver(msgs []core.Message) {
	ep.mu.Lock()
	ep.inbox = append(ep.inbox, msgs...)
	ep.mu.Unlock()
}

// ReceiveAllMessages moves every routed message into the matching
// subscription buffers and returns the number of messages processed.
func (ep *Endpoint) ReceiveAllMessages() int {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	n := len(ep.inbox)
	for _, msg := range ep.inbox {
		hd := msg.MsgHeader()
		typ := msg.MsgType()
		for key, sb := range ep.subs {
			if key.typ != typ {
				continue
			}
			if _, has := sb.senders[hd.SenderUID]; has {
				sb.buf = append(sb.buf, msg)
			}
		}
	}
	ep.inbox = nil
	return n
}

// UnloadMessages drains and returns all buffered messages of the given type
// addressed to receiver.
func (ep *Endpoint) UnloadMessages(typ core.MessageTypes, receiver core.UID) []core.Message {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	sb, has := ep.subs[subKey{typ, receiver}]
	if !has || len(sb.buf) == 0 {
		return nil
	}
	msgs := sb.buf
	sb.buf = nil
	return msgs
}

// UnloadSpikes drains the spike messages addressed to receiver.
func (ep *Endpoint) UnloadSpikes(receiver core.UID) []*core.SpikeMessage {
	return Unload[*core.SpikeMessage](ep, core.SpikeMsg, receiver)
}

// UnloadImpacts drains the synaptic impact messages addressed to receiver.
func (ep *Endpoint) UnloadImpacts(receiver core.UID) []*core.SynapticImpactMessage {
	return Unload[*core.SynapticImpactMessage](ep, core.ImpactMsg, receiver)
}

// Unload drains the buffered messages of the given type for receiver,
// keeping only those of concrete type T.
func Unload[T core.Message](ep *Endpoint, typ core.MessageTypes, receiver core.UID) []T {
	msgs := ep.UnloadMessages(typ, receiver)
	if len(msgs) == 0 {
		return nil
	}
	res := make([]T, 0, len(msgs))
	for _, m := range msgs {
		if tm, ok := m.(T); ok {
			res = append(res, tm)
		}
	}
	return res
}
