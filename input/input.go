// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package input feeds external spikes into a network. A Channel polls a
// Generator once per step and publishes the active indexes as a spike
// message on the bus, for the input projections subscribed to it.
package input

import (
	"sort"

	"github.com/emer/etable/etable"
	"github.com/emer/spiking/bus"
	"github.com/emer/spiking/core"
)

// Generator returns the indexes active at step.
type Generator func(step core.Step) []uint32

// Channel publishes the output of a Generator as spike messages.
type Channel struct {
	UID core.UID
	Gen Generator

	ep *bus.Endpoint
}

// NewChannel creates a channel with a fresh uid and its own endpoint on b.
func NewChannel(b *bus.Bus, gen Generator) *Channel {
	return &Channel{UID: core.NewUID(), Gen: gen, ep: b.NewEndpoint()}
}

// Send polls the generator and publishes its indexes, if any. Returns the
// number of indexes sent.
func (ch *Channel) Send(step core.Step) int {
	idxs := ch.Gen(step)
	if len(idxs) == 0 {
		return 0
	}
	ch.ep.Send(&core.SpikeMessage{Header: core.Header{SenderUID: ch.UID, SendTime: step}, NeuronIndexes: idxs})
	return len(idxs)
}

// Hook returns Send as a per-step hook.
func (ch *Channel) Hook() func(step core.Step) error {
	return func(step core.Step) error {
		ch.Send(step)
		return nil
	}
}

// Close detaches the channel from the bus.
func (ch *Channel) Close() {
	ch.ep.Bus().RemoveEndpoint(ch.ep)
}

// Periodic activates idxs on every step that is a multiple of period,
// starting at offset.
func Periodic(period, offset core.Step, idxs ...uint32) Generator {
	return func(step core.Step) []uint32 {
		if period == 0 || step < offset || (step-offset)%period != 0 {
			return nil
		}
		return append([]uint32(nil), idxs...)
	}
}

// Schedule activates the listed indexes at the listed steps.
func Schedule(sched map[core.Step][]uint32) Generator {
	return func(step core.Step) []uint32 {
		idxs := sched[step]
		if len(idxs) == 0 {
			return nil
		}
		return append([]uint32(nil), idxs...)
	}
}

// FromTable reads the activity of each step from a row of a tensor column:
// cells above thr are active. Rows are repeated every stepsPerRow steps and
// the table wraps around.
func FromTable(dt *etable.Table, col string, stepsPerRow int, thr float64) Generator {
	if stepsPerRow < 1 {
		stepsPerRow = 1
	}
	return func(step core.Step) []uint32 {
		if dt.Rows == 0 {
			return nil
		}
		row := int(step/core.Step(stepsPerRow)) % dt.Rows
		if step%core.Step(stepsPerRow) != 0 {
			return nil
		}
		tsr := dt.CellTensor(col, row)
		if tsr == nil {
			return nil
		}
		var idxs []uint32
		for i := 0; i < tsr.Len(); i++ {
			if tsr.FloatVal1D(i) > thr {
				idxs = append(idxs, uint32(i))
			}
		}
		sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
		return idxs
	}
}
