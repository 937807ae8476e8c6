// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"sort"
	"sync"

	"github.com/emer/spiking/core"
	"github.com/emer/spiking/snn"
	"github.com/goki/ki/ints"
)

// calcPopulationsMT runs the population phase on the pool, with a barrier
// after each of pre-impact, impact, post-impact and training.
func (b *Backend) calcPopulationsMT(step core.Step) error {
	part := ints.MaxInt(b.PopulationPartSize, 1)
	for _, pop := range b.Pops {
		pop := pop
		for st := 0; st < pop.Len(); st += part {
			st, ed := st, ints.MinInt(st+part, pop.Len())
			b.pool.Post(func() error {
				pop.CalcPreImpact(st, ed)
				return nil
			})
		}
	}
	if err := b.pool.Join(); err != nil {
		return err
	}

	for _, pop := range b.Pops {
		pop := pop
		imps := b.ep.UnloadImpacts(pop.UID)
		b.pool.Post(func() error {
			return pop.ApplyImpacts(imps)
		})
	}
	if err := b.pool.Join(); err != nil {
		return err
	}

	spikes := make([][]uint32, len(b.Pops))
	var mu sync.Mutex
	for pi, pop := range b.Pops {
		pi, pop := pi, pop
		for st := 0; st < pop.Len(); st += part {
			st, ed := st, ints.MinInt(st+part, pop.Len())
			b.pool.Post(func() error {
				local := pop.CalcPostImpact(st, ed, nil)
				if len(local) == 0 {
					return nil
				}
				mu.Lock()
				spikes[pi] = append(spikes[pi], local...)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := b.pool.Join(); err != nil {
		return err
	}
	for pi := range spikes {
		sort.Slice(spikes[pi], func(i, j int) bool { return spikes[pi][i] < spikes[pi][j] })
	}

	if b.learning {
		for pi, pop := range b.Pops {
			if !pop.Kind.IsPlastic() {
				continue
			}
			pop, spk := pop, spikes[pi]
			b.pool.Post(func() error {
				snn.TrainPopulation(pop, b.Projs, spk, step)
				return nil
			})
		}
		if err := b.pool.Join(); err != nil {
			return err
		}
	}

	for pi, pop := range b.Pops {
		b.sendSpikes(pop, spikes[pi], step)
	}
	return nil
}

// calcProjectionsMT runs the projection phase on the pool. Each task
// schedules the impacts of one range of synapses into the shared queue of
// its projection.
func (b *Backend) calcProjectionsMT(step core.Step) error {
	part := ints.MaxInt(b.ProjectionPartSize, 1)
	for _, pj := range b.Projs {
		pj := pj
		msgs := b.ep.UnloadSpikes(pj.UID)
		counts := pj.PrepareSpikes(msgs, step, b.learning)
		if len(counts) == 0 {
			continue
		}
		n := len(pj.Synapses)
		for st := 0; st < n; st += part {
			st, ed := st, ints.MinInt(st+part, n)
			b.pool.Post(func() error {
				pj.CalcSpikesPart(counts, step, st, ed)
				return nil
			})
		}
	}
	if err := b.pool.Join(); err != nil {
		return err
	}

	for _, pj := range b.Projs {
		pj := pj
		b.pool.Post(func() error {
			pj.FinishSpikes(b.learning)
			return nil
		})
	}
	if err := b.pool.Join(); err != nil {
		return err
	}

	for _, pj := range b.Projs {
		b.sendDue(pj, step)
	}
	return nil
}
