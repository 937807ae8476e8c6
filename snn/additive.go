// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import (
	"github.com/emer/spiking/core"
	"github.com/goki/mat32"
)

// AdditiveKernel is the weight change for one pair of spikes separated by
// dt = t_post - t_pre steps.
func AdditiveKernel(dt float32, ar *AdditiveRule) float32 {
	if dt > 0 {
		return ar.APlus * mat32.Exp(-dt/float32(ar.TauPlus))
	}
	return ar.AMinus * mat32.Exp(dt/float32(ar.TauMinus))
}

// AdditiveDeltaW sums the kernel over all pairs of the spike histories.
func AdditiveDeltaW(ar *AdditiveRule) float32 {
	dw := float32(0)
	for _, tpost := range ar.PostTimes {
		for _, tpre := range ar.PreTimes {
			dw += AdditiveKernel(float32(int64(tpost)-int64(tpre)), ar)
		}
	}
	return dw
}

// pushTime appends t while the history holds fewer than capacity entries.
// A full history keeps its first entries until the weight update clears it.
func pushTime(times []core.Step, t core.Step, capacity int) []core.Step {
	if len(times) >= capacity {
		return times
	}
	return append(times, t)
}

// additiveInitProjection records the spikes of the STDP populations in the
// histories of the synapses. Post times are recorded on the synapses of the
// spiking neuron as postsynaptic, pre times on its synapses as presynaptic.
func additiveInitProjection(pj *Projection, msgs []*core.SpikeMessage, step core.Step, learn bool) []*core.SpikeMessage {
	if len(pj.STDPPopulations) == 0 {
		return msgs
	}
	out := make([]*core.SpikeMessage, 0, len(msgs))
	for _, msg := range msgs {
		pt, isSTDP := pj.STDPPopulations[msg.SenderUID]
		if !isSTDP {
			out = append(out, msg)
			continue
		}
		if learn && !pj.Locked {
			for _, idx := range msg.NeuronIndexes {
				for _, si := range pj.SynapsesByPost(idx) {
					ar := &pj.Synapses[si].Additive
					ar.PostTimes = pushTime(ar.PostTimes, msg.SendTime, ar.Period())
				}
				if pt == STDPAndSpike {
					for _, si := range pj.SynapsesByPre(idx) {
						ar := &pj.Synapses[si].Additive
						ar.PreTimes = pushTime(ar.PreTimes, msg.SendTime, ar.Period())
					}
				}
			}
		}
		if pt == STDPOnly {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// additiveModifyWeights applies the kernel to every synapse whose two
// histories are full, then clears them.
func additiveModifyWeights(pj *Projection) {
	if pj.Locked {
		return
	}
	for si := range pj.Synapses {
		sy := &pj.Synapses[si]
		ar := &sy.Additive
		per := ar.Period()
		if per == 0 || len(ar.PreTimes) < per || len(ar.PostTimes) < per {
			continue
		}
		sy.Weight += AdditiveDeltaW(ar)
		ar.PreTimes = ar.PreTimes[:0]
		ar.PostTimes = ar.PostTimes[:0]
	}
}
