// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"strings"

	"github.com/goki/ki/kit"
)

// States of the backend.
type States int32

//go:generate stringer -type=States

var KiT_States = kit.Enums.AddEnum(StatesN, false, nil)

func (ev States) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *States) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Uninitialized: the network was loaded or modified since the last Init.
	Uninitialized States = iota

	// Ready: initialized and not inside a step.
	Ready

	// Stepping: inside Step.
	Stepping

	StatesN
)

func (ev States) String() string {
	switch ev {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case Stepping:
		return "Stepping"
	}
	return fmt.Sprintf("States(%d)", int32(ev))
}

// Schedulers select how the phases of a step are executed.
type Schedulers int32

//go:generate stringer -type=Schedulers

var KiT_Schedulers = kit.Enums.AddEnum(SchedulersN, false, nil)

func (ev Schedulers) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Schedulers) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// SingleThreaded runs every phase on the calling goroutine.
	SingleThreaded Schedulers = iota

	// MultiThreaded runs chunks of each phase on a worker pool.
	MultiThreaded

	SchedulersN
)

var schedulerNames = [...]string{"SingleThreaded", "MultiThreaded"}

func (ev Schedulers) String() string {
	if ev < 0 || ev >= SchedulersN {
		return fmt.Sprintf("Schedulers(%d)", int32(ev))
	}
	return schedulerNames[ev]
}

// FromString sets the value from its name, case-insensitively. "single"
// and "multi" are accepted as short forms.
func (ev *Schedulers) FromString(s string) error {
	switch strings.ToLower(s) {
	case "single", "singlethreaded", "st":
		*ev = SingleThreaded
	case "multi", "multithreaded", "mt":
		*ev = MultiThreaded
	default:
		return fmt.Errorf("backend.Schedulers: %q is not a valid value", s)
	}
	return nil
}
