// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/emer/emergent/timer"
)

// Task is one chunk of work of a phase.
type Task func() error

// Pool is a fixed set of worker goroutines executing posted tasks. Post and
// Join are called from one goroutine; tasks of one phase must touch disjoint
// state or synchronize themselves.
type Pool struct {
	NThreads    int          `desc:"number of worker goroutines"`
	LockThreads bool         `desc:"if set, runtime.LockOSThread() is called on the workers"`
	ThrTimes    []timer.Time `desc:"time spent in tasks by each worker"`

	tasks   chan Task
	wg      sync.WaitGroup
	errMu   sync.Mutex
	err     error
	running bool
}

// NewPool returns a pool of nthr workers, or runtime.NumCPU() if nthr <= 0.
// Start must be called before posting.
func NewPool(nthr int) *Pool {
	if nthr <= 0 {
		nthr = runtime.NumCPU()
	}
	return &Pool{NThreads: nthr, ThrTimes: make([]timer.Time, nthr)}
}

// Start starts the workers. No-op if already running.
func (pl *Pool) Start() {
	if pl.running {
		return
	}
	pl.tasks = make(chan Task, 4*pl.NThreads)
	for th := 0; th < pl.NThreads; th++ {
		go pl.worker(th)
	}
	pl.running = true
}

// Stop stops the workers after the posted tasks complete.
func (pl *Pool) Stop() {
	if !pl.running {
		return
	}
	close(pl.tasks)
	pl.running = false
}

func (pl *Pool) worker(th int) {
	if pl.LockThreads {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	for task := range pl.tasks {
		pl.ThrTimes[th].Start()
		pl.run(task)
		pl.ThrTimes[th].Stop()
		pl.wg.Done()
	}
}

// run executes the task, recording its error or panic.
func (pl *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			pl.setErr(fmt.Errorf("backend: task panic: %v", r))
		}
	}()
	if err := task(); err != nil {
		pl.setErr(err)
	}
}

func (pl *Pool) setErr(err error) {
	pl.errMu.Lock()
	if pl.err == nil {
		pl.err = err
	}
	pl.errMu.Unlock()
}

// Post submits a task.
func (pl *Pool) Post(task Task) {
	pl.wg.Add(1)
	pl.tasks <- task
}

// Join waits for all posted tasks and returns the first error raised by
// any of them since the last Join.
func (pl *Pool) Join() error {
	pl.wg.Wait()
	pl.errMu.Lock()
	err := pl.err
	pl.err = nil
	pl.errMu.Unlock()
	return err
}

// ThrTimerReset resets the per-worker timers
func (pl *Pool) ThrTimerReset() {
	for th := range pl.ThrTimes {
		pl.ThrTimes[th].Reset()
	}
}
