// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"
	"sort"
	"sync"

	"github.com/emer/spiking/core"
)

// Projection is a set of synapses from a presynaptic population (or an
// external input, if PreUID is nil) to a postsynaptic population, plus the
// delay queue of the impacts it has scheduled.
type Projection struct {
	UID      core.UID     `desc:"identity of the projection, used as the sender of its impact messages"`
	Name     string       `desc:"optional name, for reports"`
	PreUID   core.UID     `desc:"presynaptic population; nil for an input projection fed by external senders"`
	PostUID  core.UID     `desc:"postsynaptic population"`
	Kind     SynapseKinds `desc:"synapse model, selects the Rule"`
	Locked   bool         `desc:"if true, the weights are not modified by learning"`
	Synapses []Synapse    `desc:"the synapses"`

	// STDPPopulations maps the population uids whose spikes feed the additive
	// rule to how they are processed. Only used by AdditiveSTDPDelta.
	STDPPopulations map[core.UID]ProcessingTypes

	rule   *Rule
	byPre  map[uint32][]int
	byPost map[uint32][]int
	queue  map[core.Step]*core.SynapticImpactMessage
	mu     sync.Mutex
}

// SynapseGen returns the synapse at the given index, or false to skip it.
type SynapseGen func(idx int) (Synapse, bool)

// NewProjection builds a projection with synapses from gen for indexes
// [0, n). A nil uid gets a fresh one.
func NewProjection(uid, pre, post core.UID, kind SynapseKinds, n int, gen SynapseGen) (*Projection, error) {
	rule, err := RuleFor(kind)
	if err != nil {
		return nil, err
	}
	if uid.IsNil() {
		uid = core.NewUID()
	}
	pj := &Projection{UID: uid, PreUID: pre, PostUID: post, Kind: kind, rule: rule}
	if gen != nil {
		for i := 0; i < n; i++ {
			if sy, ok := gen(i); ok {
				pj.Synapses = append(pj.Synapses, sy)
			}
		}
	}
	pj.BuildIndex()
	return pj, nil
}

// Label returns the name if set, else the uid.
func (pj *Projection) Label() string {
	if pj.Name != "" {
		return pj.Name
	}
	return pj.UID.String()
}

// Rule returns the synapse rule of the projection.
func (pj *Projection) Rule() *Rule {
	if pj.rule == nil {
		pj.rule, _ = RuleFor(pj.Kind)
	}
	return pj.rule
}

// AddSynapse appends a synapse. BuildIndex must be called before the next step.
func (pj *Projection) AddSynapse(sy Synapse) {
	pj.Synapses = append(pj.Synapses, sy)
}

// BuildIndex rebuilds the lookup of synapses by presynaptic and
// postsynaptic neuron index.
func (pj *Projection) BuildIndex() {
	pj.byPre = make(map[uint32][]int)
	pj.byPost = make(map[uint32][]int)
	for si := range pj.Synapses {
		sy := &pj.Synapses[si]
		pj.byPre[sy.Pre] = append(pj.byPre[sy.Pre], si)
		pj.byPost[sy.Post] = append(pj.byPost[sy.Post], si)
	}
}

// SynapsesByPre returns the indexes of the synapses from presynaptic neuron idx.
func (pj *Projection) SynapsesByPre(idx uint32) []int {
	if pj.byPre == nil {
		pj.BuildIndex()
	}
	return pj.byPre[idx]
}

// SynapsesByPost returns the indexes of the synapses to postsynaptic neuron idx.
func (pj *Projection) SynapsesByPost(idx uint32) []int {
	if pj.byPost == nil {
		pj.BuildIndex()
	}
	return pj.byPost[idx]
}

// Senders returns the uids whose spike messages the projection consumes.
func (pj *Projection) Senders() []core.UID {
	var snd []core.UID
	if !pj.PreUID.IsNil() {
		snd = append(snd, pj.PreUID)
	}
	if pj.Kind == AdditiveSTDPDelta {
		for id := range pj.STDPPopulations {
			if id != pj.PreUID {
				snd = append(snd, id)
			}
		}
		sort.Slice(snd, func(i, j int) bool { return snd[i].String() < snd[j].String() })
	}
	return snd
}

// IsPlastic returns true if learning can change the weights.
func (pj *Projection) IsPlastic() bool {
	return !pj.Locked && pj.Kind != Delta
}

// Clone returns a deep copy of the synapses and parameters. The delay queue
// is not copied.
func (pj *Projection) Clone() *Projection {
	cp := &Projection{UID: pj.UID, Name: pj.Name, PreUID: pj.PreUID, PostUID: pj.PostUID, Kind: pj.Kind, Locked: pj.Locked, rule: pj.rule}
	cp.Synapses = make([]Synapse, len(pj.Synapses))
	copy(cp.Synapses, pj.Synapses)
	for i := range cp.Synapses {
		ar := &cp.Synapses[i].Additive
		ar.PreTimes = append([]core.Step(nil), ar.PreTimes...)
		ar.PostTimes = append([]core.Step(nil), ar.PostTimes...)
	}
	if pj.STDPPopulations != nil {
		cp.STDPPopulations = make(map[core.UID]ProcessingTypes, len(pj.STDPPopulations))
		for k, v := range pj.STDPPopulations {
			cp.STDPPopulations[k] = v
		}
	}
	cp.BuildIndex()
	return cp
}

// String returns a short description.
func (pj *Projection) String() string {
	return fmt.Sprintf("Projection %v (%v, %d synapses)", pj.Label(), pj.Kind, len(pj.Synapses))
}
