// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"github.com/emer/spiking/core"
	"github.com/emer/spiking/snn"
)

// calcPopulations runs the population phase inline.
func (b *Backend) calcPopulations(step core.Step) error {
	for _, pop := range b.Pops {
		imps := b.ep.UnloadImpacts(pop.UID)
		pop.CalcPreImpact(0, pop.Len())
		if err := pop.ApplyImpacts(imps); err != nil {
			return err
		}
		spikes := pop.CalcPostImpact(0, pop.Len(), nil)
		if b.learning {
			snn.TrainPopulation(pop, b.Projs, spikes, step)
		}
		b.sendSpikes(pop, spikes, step)
	}
	return nil
}

// calcProjections runs the projection phase inline.
func (b *Backend) calcProjections(step core.Step) {
	for _, pj := range b.Projs {
		msgs := b.ep.UnloadSpikes(pj.UID)
		pj.CalcSpikes(msgs, step, b.learning)
		b.sendDue(pj, step)
	}
}
