// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emer/emergent/timer"
)

// FunTimerStart starts function timer for given function name -- ensures creation of timer
func (b *Backend) FunTimerStart(fun string) {
	ft, ok := b.FunTimes[fun]
	if !ok {
		ft = &timer.Time{}
		b.FunTimes[fun] = ft
	}
	ft.Start()
}

// FunTimerStop stops function timer -- timer must already exist
func (b *Backend) FunTimerStop(fun string) {
	ft := b.FunTimes[fun]
	ft.Stop()
}

// TimerReset resets the function and worker timers.
func (b *Backend) TimerReset() {
	for _, ft := range b.FunTimes {
		ft.Reset()
	}
	if b.pool != nil {
		b.pool.ThrTimerReset()
	}
}

// TimerReport returns the time spent in each phase, and in each worker
// for the multi-threaded scheduler.
func (b *Backend) TimerReport() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TimerReport: %v, NThreads: %v\n", b.Name, b.NThreads())
	fmt.Fprintf(&sb, "\t%13s \t%7s\t%7s\n", "Function Name", "Secs", "Pct")
	fnms := make([]string, 0, len(b.FunTimes))
	for k := range b.FunTimes {
		fnms = append(fnms, k)
	}
	sort.Strings(fnms)
	pcts := make([]float64, len(fnms))
	tot := 0.0
	for i, fn := range fnms {
		pcts[i] = b.FunTimes[fn].TotalSecs()
		tot += pcts[i]
	}
	for i, fn := range fnms {
		fmt.Fprintf(&sb, "\t%13s \t%7.3f\t%7.1f\n", fn, pcts[i], 100*(pcts[i]/tot))
	}
	fmt.Fprintf(&sb, "\t%13s \t%7.3f\n", "Total", tot)

	if b.pool == nil {
		return sb.String()
	}
	fmt.Fprintf(&sb, "\n\tThr\tSecs\tPct\n")
	nthr := b.pool.NThreads
	pcts = make([]float64, nthr)
	tot = 0.0
	for th := 0; th < nthr; th++ {
		pcts[th] = b.pool.ThrTimes[th].TotalSecs()
		tot += pcts[th]
	}
	for th := 0; th < nthr; th++ {
		fmt.Fprintf(&sb, "\t%v \t%7.3f\t%7.1f\n", th, pcts[th], 100*(pcts[th]/tot))
	}
	return sb.String()
}
