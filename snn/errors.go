// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snn

import "errors"

var (
	// ErrUnsupportedImpact is returned when a neuron model receives an
	// impact output type it cannot process.
	ErrUnsupportedImpact = errors.New("snn: unsupported synapse output type")

	// ErrUnknownNeuronKind is returned for neuron kinds outside NeuronKinds.
	ErrUnknownNeuronKind = errors.New("snn: unknown neuron kind")

	// ErrUnknownSynapseKind is returned for synapse kinds outside SynapseKinds.
	ErrUnknownSynapseKind = errors.New("snn: unknown synapse kind")

	// ErrWeightOutOfRange is returned by ResourceFromWeight when the weight
	// cannot be represented by a synaptic resource.
	ErrWeightOutOfRange = errors.New("snn: weight out of representable range")
)
