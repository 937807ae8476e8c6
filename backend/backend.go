// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"errors"
	"fmt"

	"github.com/emer/emergent/timer"
	"github.com/emer/spiking/bus"
	"github.com/emer/spiking/core"
	"github.com/emer/spiking/logger"
	"github.com/emer/spiking/snn"
)

var (
	// ErrNotInitialized is returned by Step on a backend that needs Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrAlreadyInitialized is returned by Init on a ready backend.
	ErrAlreadyInitialized = errors.New("backend: already initialized")

	// ErrStepping is returned when the network is modified inside a step.
	ErrStepping = errors.New("backend: operation not allowed while stepping")

	// ErrNotFound is returned for unknown population or projection uids.
	ErrNotFound = errors.New("backend: not found")
)

// StepHook is called once per step, with the index of that step.
type StepHook func(step core.Step) error

// Backend owns a network and steps it.
type Backend struct {
	Name               string                 `desc:"name, for reports and logs"`
	Scheduler          Schedulers             `desc:"how the phases of a step are executed"`
	PopulationPartSize int                    `def:"1000" desc:"neurons per task in the multi-threaded population phase"`
	ProjectionPartSize int                    `def:"1000" desc:"synapses per task in the multi-threaded projection phase"`
	Pops               []*snn.Population      `desc:"the populations, in load order"`
	Projs              []*snn.Projection      `desc:"the projections, in load order"`
	FunTimes           map[string]*timer.Time `desc:"timers for each phase"`

	bus       *bus.Bus
	ep        *bus.Endpoint
	pool      *Pool
	state     States
	step      core.Step
	learning  bool
	preHooks  []StepHook
	postHooks []StepHook
}

// New returns a backend with its own bus. nthr is the number of workers of
// the multi-threaded scheduler; <= 0 means one per cpu.
func New(name string, sched Schedulers, nthr int) *Backend {
	b := &Backend{Name: name, Scheduler: sched}
	b.Defaults()
	b.bus = bus.NewBus()
	b.ep = b.bus.NewEndpoint()
	if sched == MultiThreaded {
		b.pool = NewPool(nthr)
	}
	logger.Info("backend created", "name", name, "scheduler", sched)
	return b
}

// NewSingleThreaded returns a backend that runs every phase inline.
func NewSingleThreaded(name string) *Backend {
	return New(name, SingleThreaded, 1)
}

// NewMultiThreaded returns a backend that runs phases on nthr workers.
func NewMultiThreaded(name string, nthr int) *Backend {
	return New(name, MultiThreaded, nthr)
}

func (b *Backend) Defaults() {
	b.PopulationPartSize = 1000
	b.ProjectionPartSize = 1000
	b.FunTimes = make(map[string]*timer.Time)
	b.learning = true
}

// Bus returns the bus shared by the backend and its external collaborators.
func (b *Backend) Bus() *bus.Bus { return b.bus }

// Endpoint returns the endpoint of the backend on its bus.
func (b *Backend) Endpoint() *bus.Endpoint { return b.ep }

// State returns the current state.
func (b *Backend) State() States { return b.state }

// CurStep returns the index of the next step to run.
func (b *Backend) CurStep() core.Step { return b.step }

// NThreads returns the number of workers, 1 for the single-threaded scheduler.
func (b *Backend) NThreads() int {
	if b.pool == nil {
		return 1
	}
	return b.pool.NThreads
}

// SupportedNeurons lists the neuron kinds the backend can run.
func SupportedNeurons() []snn.NeuronKinds {
	nk := make([]snn.NeuronKinds, snn.NeuronKindsN)
	for i := range nk {
		nk[i] = snn.NeuronKinds(i)
	}
	return nk
}

// SupportedSynapses lists the synapse kinds the backend can run.
func SupportedSynapses() []snn.SynapseKinds {
	sk := make([]snn.SynapseKinds, snn.SynapseKindsN)
	for i := range sk {
		sk[i] = snn.SynapseKinds(i)
	}
	return sk
}

//////////////////////////////////////////////////////////////////////
//  Loading

// LoadPopulations adds populations. The backend needs Init afterward.
func (b *Backend) LoadPopulations(pops ...*snn.Population) error {
	if b.state == Stepping {
		return ErrStepping
	}
	for _, pop := range pops {
		if _, err := b.PopulationTry(pop.UID); err == nil {
			return fmt.Errorf("backend: population %v already loaded", pop.Label())
		}
		b.Pops = append(b.Pops, pop)
	}
	b.state = Uninitialized
	logger.Debug("populations loaded", "n", len(pops), "total", len(b.Pops))
	return nil
}

// LoadProjections adds projections. The backend needs Init afterward.
func (b *Backend) LoadProjections(projs ...*snn.Projection) error {
	if b.state == Stepping {
		return ErrStepping
	}
	for _, pj := range projs {
		if _, err := b.ProjectionTry(pj.UID); err == nil {
			return fmt.Errorf("backend: projection %v already loaded", pj.Label())
		}
		b.Projs = append(b.Projs, pj)
	}
	b.state = Uninitialized
	logger.Debug("projections loaded", "n", len(projs), "total", len(b.Projs))
	return nil
}

// RemovePopulations removes populations by uid. Unknown uids are ignored.
func (b *Backend) RemovePopulations(uids ...core.UID) error {
	if b.state == Stepping {
		return ErrStepping
	}
	for _, id := range uids {
		for i, pop := range b.Pops {
			if pop.UID == id {
				b.ep.Unsubscribe(core.ImpactMsg, id)
				b.Pops = append(b.Pops[:i], b.Pops[i+1:]...)
				break
			}
		}
	}
	b.state = Uninitialized
	return nil
}

// RemoveProjections removes projections by uid. Unknown uids are ignored.
func (b *Backend) RemoveProjections(uids ...core.UID) error {
	if b.state == Stepping {
		return ErrStepping
	}
	for _, id := range uids {
		for i, pj := range b.Projs {
			if pj.UID == id {
				b.ep.Unsubscribe(core.SpikeMsg, id)
				b.Projs = append(b.Projs[:i], b.Projs[i+1:]...)
				break
			}
		}
	}
	b.state = Uninitialized
	return nil
}

// PopulationTry returns the population with the given uid, or error.
func (b *Backend) PopulationTry(uid core.UID) (*snn.Population, error) {
	for _, pop := range b.Pops {
		if pop.UID == uid {
			return pop, nil
		}
	}
	return nil, fmt.Errorf("%w: population %v", ErrNotFound, uid)
}

// ProjectionTry returns the projection with the given uid, or error.
func (b *Backend) ProjectionTry(uid core.UID) (*snn.Projection, error) {
	for _, pj := range b.Projs {
		if pj.UID == uid {
			return pj, nil
		}
	}
	return nil, fmt.Errorf("%w: projection %v", ErrNotFound, uid)
}

//////////////////////////////////////////////////////////////////////
//  Init and subscriptions

// Init builds the synapse indexes, primes the rule state of synapses not
// primed by an earlier Init and subscribes every population and projection
// to its senders.
func (b *Backend) Init() error {
	switch b.state {
	case Ready:
		return ErrAlreadyInitialized
	case Stepping:
		return ErrStepping
	}
	for _, pj := range b.Projs {
		pj.BuildIndex()
		if pj.Kind == snn.ResourceSTDPDelta {
			for si := range pj.Synapses {
				if rr := &pj.Synapses[si].Resource; !rr.Primed {
					rr.LastSpikeStep = b.step
					rr.Primed = true
				}
			}
		}
		b.ep.Subscribe(core.SpikeMsg, pj.UID, pj.Senders()...)
	}
	for _, pop := range b.Pops {
		var snd []core.UID
		for _, pj := range b.Projs {
			if pj.PostUID == pop.UID {
				snd = append(snd, pj.UID)
			}
		}
		b.ep.Subscribe(core.ImpactMsg, pop.UID, snd...)
	}
	if b.pool != nil {
		b.pool.Start()
	}
	b.state = Ready
	logger.Info("backend initialized", "name", b.Name, "populations", len(b.Pops), "projections", len(b.Projs), "threads", b.NThreads())
	return nil
}

// Subscribe adds senders to the spike subscription of a projection, e.g.,
// an input channel feeding an input projection.
func (b *Backend) Subscribe(projUID core.UID, senders ...core.UID) error {
	if _, err := b.ProjectionTry(projUID); err != nil {
		return err
	}
	b.ep.Subscribe(core.SpikeMsg, projUID, senders...)
	return nil
}

// Unsubscribe removes senders from the spike subscription of a projection.
func (b *Backend) Unsubscribe(projUID core.UID, senders ...core.UID) error {
	if _, err := b.ProjectionTry(projUID); err != nil {
		return err
	}
	b.ep.RemoveSenders(core.SpikeMsg, projUID, senders...)
	return nil
}

// AddPreStepHook registers a function called at the start of each step,
// before the population phase. Messages it sends are routed in that step.
func (b *Backend) AddPreStepHook(h StepHook) {
	b.preHooks = append(b.preHooks, h)
}

// AddPostStepHook registers a function called at the end of each step,
// before the step counter is incremented.
func (b *Backend) AddPostStepHook(h StepHook) {
	b.postHooks = append(b.postHooks, h)
}

//////////////////////////////////////////////////////////////////////
//  Learning

// StartLearning enables the plasticity of all the unlocked projections.
func (b *Backend) StartLearning() { b.learning = true }

// StopLearning freezes all the weights; spikes still propagate.
func (b *Backend) StopLearning() { b.learning = false }

// IsLearning returns true if plasticity is enabled.
func (b *Backend) IsLearning() bool { return b.learning }

//////////////////////////////////////////////////////////////////////
//  Stepping

// Step runs one step. The first error of any phase aborts the step and is
// returned; the step counter is not incremented.
func (b *Backend) Step() error {
	if b.state != Ready {
		return ErrNotInitialized
	}
	b.state = Stepping
	defer func() { b.state = Ready }()
	step := b.step
	logger.Debug("step start", "name", b.Name, "step", step)

	for _, h := range b.preHooks {
		if err := h(step); err != nil {
			return err
		}
	}
	b.route()

	var err error
	b.FunTimerStart("Populations")
	if b.pool != nil {
		err = b.calcPopulationsMT(step)
	} else {
		err = b.calcPopulations(step)
	}
	b.FunTimerStop("Populations")
	if err != nil {
		return fmt.Errorf("step %d: %w", step, err)
	}
	b.route()

	b.FunTimerStart("Projections")
	if b.pool != nil {
		err = b.calcProjectionsMT(step)
	} else {
		b.calcProjections(step)
	}
	b.FunTimerStop("Projections")
	if err != nil {
		return fmt.Errorf("step %d: %w", step, err)
	}
	b.route()

	for _, h := range b.postHooks {
		if err := h(step); err != nil {
			return err
		}
	}
	b.step++
	logger.Debug("step done", "name", b.Name, "step", step)
	return nil
}

// Start initializes the backend if needed and steps while pred, given the
// index of the step just completed, returns true. A nil pred never stops,
// so it must only be used when a hook returns an error to end the run.
func (b *Backend) Start(pred func(step core.Step) bool) error {
	if b.state == Uninitialized {
		if err := b.Init(); err != nil {
			return err
		}
	}
	for {
		step := b.step
		if err := b.Step(); err != nil {
			return err
		}
		if pred != nil && !pred(step) {
			return nil
		}
	}
}

// RunSteps runs n steps.
func (b *Backend) RunSteps(n int) error {
	if n <= 0 {
		return nil
	}
	last := b.step + core.Step(n) - 1
	return b.Start(func(step core.Step) bool { return step < last })
}

// Stop stops the worker pool of the multi-threaded scheduler. The backend
// needs Init before the next step.
func (b *Backend) Stop() {
	if b.pool != nil {
		b.pool.Stop()
	}
	if b.state == Ready {
		b.state = Uninitialized
	}
}

func (b *Backend) route() {
	b.bus.RouteMessages()
	b.ep.ReceiveAllMessages()
}

func (b *Backend) sendSpikes(pop *snn.Population, spikes []uint32, step core.Step) {
	if len(spikes) == 0 {
		return
	}
	b.ep.Send(&core.SpikeMessage{Header: core.Header{SenderUID: pop.UID, SendTime: step}, NeuronIndexes: spikes})
}

func (b *Backend) sendDue(pj *snn.Projection, step core.Step) {
	for _, msg := range pj.PopDue(step) {
		b.ep.Send(msg)
	}
}
