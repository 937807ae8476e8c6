// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"sort"

	"github.com/emer/spiking/core"
)

// PendingImpact is an impact and the step at which it is due.
type PendingImpact struct {
	Step   core.Step
	Impact core.SynapticImpact
}

// FutureStep returns the step whose projection phase flushes an impact sent
// at step with the given delay. Impacts flushed at step s are received by
// the postsynaptic population in step s+1, so a delay of d arrives d steps
// after the spike. Delay 0 is treated as 1.
func FutureStep(step core.Step, delay uint32) core.Step {
	if delay == 0 {
		return step
	}
	return step + core.Step(delay) - 1
}

// Schedule adds a batch of impacts to the delay queue. Safe for concurrent use.
func (pj *Projection) Schedule(batch []PendingImpact) {
	if len(batch) == 0 {
		return
	}
	pj.mu.Lock()
	defer pj.mu.Unlock()
	if pj.queue == nil {
		pj.queue = make(map[core.Step]*core.SynapticImpactMessage)
	}
	forcing := pj.Rule().IsForcing
	for i := range batch {
		pi := &batch[i]
		msg, ok := pj.queue[pi.Step]
		if !ok {
			msg = &core.SynapticImpactMessage{
				Header:                    core.Header{SenderUID: pj.UID, SendTime: pi.Step},
				PresynapticPopulationUID:  pj.PreUID,
				PostsynapticPopulationUID: pj.PostUID,
				IsForcing:                 forcing,
			}
			pj.queue[pi.Step] = msg
		}
		msg.Impacts = append(msg.Impacts, pi.Impact)
	}
}

// PopDue removes and returns the messages due at or before step, oldest
// first, with their impacts ordered by synapse index.
func (pj *Projection) PopDue(step core.Step) []*core.SynapticImpactMessage {
	pj.mu.Lock()
	defer pj.mu.Unlock()
	var due []*core.SynapticImpactMessage
	for key, msg := range pj.queue {
		if key <= step {
			due = append(due, msg)
			delete(pj.queue, key)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].SendTime < due[j].SendTime })
	for _, msg := range due {
		msg.SendTime = step
		sort.SliceStable(msg.Impacts, func(i, j int) bool { return msg.Impacts[i].SynapseIndex < msg.Impacts[j].SynapseIndex })
	}
	return due
}

// NQueued returns the number of impacts waiting in the delay queue.
func (pj *Projection) NQueued() int {
	pj.mu.Lock()
	defer pj.mu.Unlock()
	n := 0
	for _, msg := range pj.queue {
		n += len(msg.Impacts)
	}
	return n
}

// ClearQueue drops all scheduled impacts.
func (pj *Projection) ClearQueue() {
	pj.mu.Lock()
	pj.queue = nil
	pj.mu.Unlock()
}
