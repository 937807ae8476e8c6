// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads a network and run description from YAML and builds
// the populations and projections it describes.
//
// Neuron and synapse parameter blocks are decoded over the defaults of the
// corresponding snn parameter struct, so only the fields given change. Keys
// are the Go field names in lower case, e.g. activationthreshold.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/emer/spiking/backend"
	"github.com/emer/spiking/core"
	"github.com/emer/spiking/snn"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for a description that cannot be built.
var ErrInvalidConfig = errors.New("invalid config")

// InputName is the pre population name of projections fed from an input channel.
const InputName = "input"

// Connection patterns.
const (
	AllToAll = "all-to-all"
	OneToOne = "one-to-one"
	Explicit = "explicit"
)

// Network is the root of the YAML document.
type Network struct {
	Name        string       `yaml:"name"`
	Populations []Population `yaml:"populations"`
	Projections []Projection `yaml:"projections"`
	Run         Run          `yaml:"run"`
}

// Population describes a population of identical neurons.
type Population struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Size int    `yaml:"size"`

	// overrides of snn.BlifatParams, snn.AltaiParams and snn.ResourceParams
	Blifat   yaml.Node `yaml:"blifat"`
	Altai    yaml.Node `yaml:"altai"`
	Resource yaml.Node `yaml:"resource"`
}

// Projection describes the synapses from one population to another.
type Projection struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Pre       string `yaml:"pre"`
	Post      string `yaml:"post"`
	InputSize int    `yaml:"input_size"`
	Locked    bool   `yaml:"locked"`
	Connect   string `yaml:"connect"`

	// defaults of every synapse
	Weight float32 `yaml:"weight"`
	Delay  uint32  `yaml:"delay"`
	Output string  `yaml:"output"`

	// overrides of snn.ResourceRule and snn.AdditiveRule
	Resource yaml.Node `yaml:"resource"`
	Additive yaml.Node `yaml:"additive"`

	Synapses []Synapse `yaml:"synapses"`

	// population name to processing type, for additive STDP
	STDP map[string]string `yaml:"stdp"`
}

// Synapse is one synapse of an explicit projection. Nil fields take the
// projection defaults.
type Synapse struct {
	Pre    uint32   `yaml:"pre"`
	Post   uint32   `yaml:"post"`
	Weight *float32 `yaml:"weight"`
	Delay  *uint32  `yaml:"delay"`
	Output string   `yaml:"output"`
}

// Run holds the settings of a simulation run.
type Run struct {
	Steps              int     `yaml:"steps"`
	Scheduler          string  `yaml:"scheduler"`
	Threads            int     `yaml:"threads"`
	PopulationPartSize int     `yaml:"population_part_size"`
	ProjectionPartSize int     `yaml:"projection_part_size"`
	Learning           *bool   `yaml:"learning"`
	Inputs             []Input `yaml:"inputs"`
}

// Input feeds an input projection, periodically or on a schedule.
type Input struct {
	Projection string              `yaml:"projection"`
	Period     uint64              `yaml:"period"`
	Offset     uint64              `yaml:"offset"`
	Neurons    []uint32            `yaml:"neurons"`
	Schedule   map[uint64][]uint32 `yaml:"schedule"`
}

// Load reads and parses the file at path.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML document, applies defaults and validates it.
func Parse(data []byte) (*Network, error) {
	var nw Network
	if err := yaml.Unmarshal(data, &nw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	nw.applyDefaults()
	if err := nw.Validate(); err != nil {
		return nil, err
	}
	return &nw, nil
}

// applyDefaults fills in missing values with defaults
func (nw *Network) applyDefaults() {
	if nw.Name == "" {
		nw.Name = "network"
	}
	for i := range nw.Projections {
		pj := &nw.Projections[i]
		if pj.Connect == "" {
			if len(pj.Synapses) > 0 {
				pj.Connect = Explicit
			} else {
				pj.Connect = AllToAll
			}
		}
		if pj.Delay == 0 {
			pj.Delay = 1
		}
		if pj.Output == "" {
			pj.Output = core.Excitatory.String()
		}
	}
	run := &nw.Run
	if run.Scheduler == "" {
		run.Scheduler = backend.SingleThreaded.String()
	}
	if run.Threads <= 0 {
		run.Threads = 1
	}
	if run.Learning == nil {
		on := true
		run.Learning = &on
	}
}

// Population returns the population with the given name, or nil.
func (nw *Network) Population(name string) *Population {
	for i := range nw.Populations {
		if nw.Populations[i].Name == name {
			return &nw.Populations[i]
		}
	}
	return nil
}

// Projection returns the projection with the given name, or nil.
func (nw *Network) Projection(name string) *Projection {
	for i := range nw.Projections {
		if nw.Projections[i].Name == name {
			return &nw.Projections[i]
		}
	}
	return nil
}

// PreSize returns the number of presynaptic neurons of a projection.
func (nw *Network) PreSize(pj *Projection) int {
	if pj.Pre == InputName {
		if pj.InputSize > 0 {
			return pj.InputSize
		}
		if post := nw.Population(pj.Post); post != nil {
			return post.Size
		}
		return 0
	}
	if pre := nw.Population(pj.Pre); pre != nil {
		return pre.Size
	}
	return 0
}

// Validate reports every problem of the description in one error wrapping
// ErrInvalidConfig.
func (nw *Network) Validate() error {
	var probs []string
	add := func(format string, args ...any) {
		probs = append(probs, fmt.Sprintf(format, args...))
	}

	if len(nw.Populations) == 0 {
		add("no populations")
	}
	names := map[string]bool{InputName: true}
	for i := range nw.Populations {
		pop := &nw.Populations[i]
		if pop.Name == "" {
			add("population %d: missing name", i)
		} else if names[pop.Name] {
			add("population %q: duplicate name", pop.Name)
		}
		names[pop.Name] = true
		var nk snn.NeuronKinds
		if err := nk.FromString(pop.Kind); err != nil {
			add("population %q: %v", pop.Name, err)
		}
		if pop.Size <= 0 {
			add("population %q: size must be positive", pop.Name)
		}
	}

	for i := range nw.Projections {
		pj := &nw.Projections[i]
		if pj.Name == "" {
			add("projection %d: missing name", i)
		} else if names[pj.Name] {
			add("projection %q: duplicate name", pj.Name)
		}
		names[pj.Name] = true
		var sk snn.SynapseKinds
		if err := sk.FromString(pj.Kind); err != nil {
			add("projection %q: %v", pj.Name, err)
		}
		if pj.Pre != InputName && nw.Population(pj.Pre) == nil {
			add("projection %q: unknown pre population %q", pj.Name, pj.Pre)
		}
		post := nw.Population(pj.Post)
		if post == nil {
			add("projection %q: unknown post population %q", pj.Name, pj.Post)
		}
		var ot core.OutputTypes
		if err := ot.FromString(pj.Output); err != nil {
			add("projection %q: %v", pj.Name, err)
		}
		preN := nw.PreSize(pj)
		switch pj.Connect {
		case AllToAll:
		case OneToOne:
			if post != nil && preN != post.Size {
				add("projection %q: one-to-one needs equal sizes, got %d and %d", pj.Name, preN, post.Size)
			}
		case Explicit:
			for si, sy := range pj.Synapses {
				if int(sy.Pre) >= preN || (post != nil && int(sy.Post) >= post.Size) {
					add("projection %q: synapse %d: index out of range", pj.Name, si)
				}
				if sy.Output != "" {
					if err := ot.FromString(sy.Output); err != nil {
						add("projection %q: synapse %d: %v", pj.Name, si, err)
					}
				}
			}
		default:
			add("projection %q: unknown connect %q", pj.Name, pj.Connect)
		}
		if len(pj.STDP) > 0 && sk != snn.AdditiveSTDPDelta {
			add("projection %q: stdp populations need kind %s", pj.Name, snn.AdditiveSTDPDelta)
		}
		for pnm, pt := range pj.STDP {
			if nw.Population(pnm) == nil {
				add("projection %q: unknown stdp population %q", pj.Name, pnm)
			}
			var ptyp snn.ProcessingTypes
			if err := ptyp.FromString(pt); err != nil {
				add("projection %q: %v", pj.Name, err)
			}
		}
	}

	run := &nw.Run
	if run.Steps < 0 {
		add("run: steps must not be negative")
	}
	var sched backend.Schedulers
	if err := sched.FromString(run.Scheduler); err != nil {
		add("run: %v", err)
	}
	if run.PopulationPartSize < 0 || run.ProjectionPartSize < 0 {
		add("run: part sizes must not be negative")
	}
	for i, in := range run.Inputs {
		pj := nw.Projection(in.Projection)
		if pj == nil {
			add("run: input %d: unknown projection %q", i, in.Projection)
			continue
		}
		if pj.Pre != InputName {
			add("run: input %d: projection %q is not fed from %s", i, pj.Name, InputName)
			continue
		}
		preN := nw.PreSize(pj)
		for _, idx := range in.Neurons {
			if int(idx) >= preN {
				add("run: input %d: neuron %d out of range", i, idx)
			}
		}
		for st, idxs := range in.Schedule {
			for _, idx := range idxs {
				if int(idx) >= preN {
					add("run: input %d: step %d: neuron %d out of range", i, st, idx)
				}
			}
		}
	}

	if len(probs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(probs, "; "))
	}
	return nil
}
