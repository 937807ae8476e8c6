// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package bus is a typed publish / subscribe primitive that routes spike and
synaptic impact messages between populations, projections and any external
observer or input channel.

Messages sent through an Endpoint are buffered on the Bus until RouteMessages
is called. Routing copies the pending messages into the inbox of every
endpoint; ReceiveAllMessages then moves each message into the buffers of the
subscriptions interested in its (type, sender) pair, and Unload drains the
buffer of one receiver. Messages of the same sender keep their publish order;
no order is guaranteed across senders.
*/
package bus

import (
	"sync"

	"github.com/emer/spiking/core"
)

// Bus owns the routing queue and the set of endpoints attached to it.
type Bus struct {
	mu        sync.Mutex
	endpoints []*Endpoint
	pending   []core.Message
}

// NewBus returns a new empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// NewEndpoint creates an endpoint attached to this bus.
func (b *Bus) NewEndpoint() *Endpoint {
	ep := &Endpoint{bus: b, subs: make(map[subKey]*Subscription)}
	b.mu.Lock()
	b.endpoints = append(b.endpoints, ep)
	b.mu.Unlock()
	return ep
}

// RemoveEndpoint detaches the endpoint: it no longer receives routed messages.
func (b *Bus) RemoveEndpoint(ep *Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.endpoints {
		if e == ep {
			b.endpoints = append(b.endpoints[:i], b.endpoints[i+1:]...)
			return
		}
	}
}

// publish queues a message for the next routing.
func (b *Bus) publish(msg core.Message) {
	b.mu.Lock()
	b.pending = append(b.pending, msg)
	b.mu.Unlock()
}

// RouteMessages delivers all pending messages to the inbox of every endpoint
// and returns the number of messages routed.
func (b *Bus) RouteMessages() int {
	b.mu.Lock()
	msgs := b.pending
	b.pending = nil
	eps := make([]*Endpoint, len(b.endpoints))
	copy(eps, b.endpoints)
	b.mu.Unlock()
	if len(msgs) == 0 {
		return 0
	}
	for _, ep := range eps {
		ep.deliver(msgs)
	}
	return len(msgs)
}

// NPending returns the number of messages waiting for routing.
func (b *Bus) NPending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
