// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "fmt"

// weightEpsilon is the closest a weight may be to the upper bound and still
// be representable by a finite resource.
const weightEpsilon = 1e-6

// ResourceFromWeight returns the synaptic resource that gives weight w for
// a synapse with the given bounds. It is the inverse of ResourceRule.WeightOf.
// The bounds are swapped if given in the wrong order.
func ResourceFromWeight(w, wMin, wMax float32) (float32, error) {
	if wMin > wMax {
		wMin, wMax = wMax, wMin
	}
	if w < wMin || w >= wMax-weightEpsilon {
		return 0, fmt.Errorf("%w: weight %g, bounds [%g, %g)", ErrWeightOutOfRange, w, wMin, wMax)
	}
	diff := wMax - wMin
	over := w - wMin
	return over * diff / (diff - over), nil
}

// SetWeight sets the resource of a resource STDP synapse so that it has
// weight w, and sets the weight.
func (sy *Synapse) SetWeight(w float32) error {
	r, err := ResourceFromWeight(w, sy.Resource.WMin, sy.Resource.WMax)
	if err != nil {
		return err
	}
	sy.Resource.SynapticResource = r
	sy.Weight = sy.Resource.WeightOf()
	return nil
}
