// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"fmt"

	"github.com/emer/spiking/core"
)

// Rule is the behavior of a synapse kind inside the projection phase.
// Nil functions are no-ops.
type Rule struct {
	Kind SynapseKinds

	// IsForcing is stamped on every impact message of the projection.
	IsForcing bool

	// InitProjection runs once per step before the spikes are turned into
	// impacts. It returns the messages that are transmitted. Messages shared
	// with other receivers must not be modified. learn is false while
	// learning is stopped.
	InitProjection func(pj *Projection, msgs []*core.SpikeMessage, step core.Step, learn bool) []*core.SpikeMessage

	// InitSynapse runs for each synapse receiving a presynaptic spike.
	InitSynapse func(sy *Synapse, step core.Step)

	// ModifyWeights runs after scheduling, while learning is on.
	ModifyWeights func(pj *Projection)
}

var rules = [SynapseKindsN]*Rule{
	Delta: {
		Kind:      Delta,
		IsForcing: true,
	},
	ResourceSTDPDelta: {
		Kind: ResourceSTDPDelta,
		InitSynapse: func(sy *Synapse, step core.Step) {
			sy.Resource.LastSpikeStep = step
		},
	},
	AdditiveSTDPDelta: {
		Kind:           AdditiveSTDPDelta,
		InitProjection: additiveInitProjection,
		ModifyWeights:  additiveModifyWeights,
	},
}

// RuleFor returns the rule of a synapse kind.
func RuleFor(kind SynapseKinds) (*Rule, error) {
	if kind < 0 || kind >= SynapseKindsN {
		return nil, fmt.Errorf("%w: %v", ErrUnknownSynapseKind, kind)
	}
	return rules[kind], nil
}
