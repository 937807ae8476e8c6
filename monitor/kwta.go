// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"math/rand"
	"sort"

	"github.com/emer/spiking/core"
)

// KWTARandom keeps at most K spikes of a message, chosen at random.
type KWTARandom struct {
	K int `desc:"maximum number of winners"`

	rnd *rand.Rand
}

// NewKWTARandom returns a handler with its own generator seeded with seed.
func NewKWTARandom(k int, seed int64) *KWTARandom {
	return &KWTARandom{K: k, rnd: rand.New(rand.NewSource(seed))}
}

// Apply returns a copy of msg with at most K of its indexes, sorted. The
// input message is not modified.
func (kw *KWTARandom) Apply(msg *core.SpikeMessage) *core.SpikeMessage {
	out := &core.SpikeMessage{Header: msg.Header}
	idxs := msg.NeuronIndexes
	if len(idxs) <= kw.K {
		out.NeuronIndexes = append([]uint32(nil), idxs...)
		return out
	}
	if kw.K <= 0 {
		return out
	}
	perm := kw.rnd.Perm(len(idxs))
	win := make([]uint32, kw.K)
	for i := range win {
		win[i] = idxs[perm[i]]
	}
	sort.Slice(win, func(i, j int) bool { return win[i] < win[j] })
	out.NeuronIndexes = win
	return out
}
