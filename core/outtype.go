// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"fmt"
	"strings"

	"github.com/goki/ki/kit"
)

// OutputTypes are the ways a synaptic impact acts on its target neuron.
type OutputTypes int32

//go:generate stringer -type=OutputTypes

var KiT_OutputTypes = kit.Enums.AddEnum(OutputTypesN, false, nil)

func (ev OutputTypes) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *OutputTypes) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The output types
const (
	// Excitatory adds the impact value to the membrane potential.
	Excitatory OutputTypes = iota

	// InhibitoryCurrent subtracts the impact value from the membrane potential.
	InhibitoryCurrent

	// InhibitoryConductance accumulates an inhibitory conductance that is consumed
	// in the post-impact phase.
	InhibitoryConductance

	// Dopamine accumulates the reward / punishment signal of plastic neurons.
	Dopamine

	// Blocking sets or extends the blocking timer of the neuron.
	Blocking

	OutputTypesN
)

var outputTypeNames = [...]string{"Excitatory", "InhibitoryCurrent", "InhibitoryConductance", "Dopamine", "Blocking"}

func (ev OutputTypes) String() string {
	if ev < 0 || ev >= OutputTypesN {
		return fmt.Sprintf("OutputTypes(%d)", int32(ev))
	}
	return outputTypeNames[ev]
}

// FromString sets the value from its name, case-insensitively.
func (ev *OutputTypes) FromString(s string) error {
	for i, nm := range outputTypeNames {
		if strings.EqualFold(nm, s) {
			*ev = OutputTypes(i)
			return nil
		}
	}
	return fmt.Errorf("core.OutputTypes: %q is not a valid value", s)
}
