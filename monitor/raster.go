// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package monitor

import (
	"io"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/emer/spiking/core"
	"github.com/emer/spiking/snn"
)

// Raster records spikes as rows of (Step, Sender, Neuron).
type Raster struct {
	Table *etable.Table

	names map[core.UID]string
}

// NewRaster returns an empty raster. names maps sender uids to the names
// written in the Sender column; unknown senders are written as uids.
func NewRaster(names map[core.UID]string) *Raster {
	rs := &Raster{Table: &etable.Table{}, names: names}
	rs.Table.SetMetaData("name", "SpikeRaster")
	rs.Table.SetMetaData("desc", "spikes by step, sender and neuron")
	sch := etable.Schema{
		{"Step", etensor.INT64, nil, nil},
		{"Sender", etensor.STRING, nil, nil},
		{"Neuron", etensor.INT64, nil, nil},
	}
	rs.Table.SetFromSchema(sch, 0)
	return rs
}

// Record appends the spikes of the messages. It can be used as the Process
// function of a spike observer.
func (rs *Raster) Record(msgs []*core.SpikeMessage, step core.Step) error {
	dt := rs.Table
	for _, msg := range msgs {
		snd := rs.senderName(msg.SenderUID)
		for _, idx := range msg.NeuronIndexes {
			row := dt.Rows
			dt.SetNumRows(row + 1)
			dt.SetCellFloat("Step", row, float64(msg.SendTime))
			dt.SetCellString("Sender", row, snd)
			dt.SetCellFloat("Neuron", row, float64(idx))
		}
	}
	return nil
}

func (rs *Raster) senderName(id core.UID) string {
	if nm, ok := rs.names[id]; ok {
		return nm
	}
	return id.String()
}

// NSpikes returns the number of recorded spikes.
func (rs *Raster) NSpikes() int { return rs.Table.Rows }

// Steps returns the steps at which the named sender spiked, one entry per
// spike, in recording order.
func (rs *Raster) Steps(sender string) []core.Step {
	var steps []core.Step
	dt := rs.Table
	for row := 0; row < dt.Rows; row++ {
		if dt.CellString("Sender", row) == sender {
			steps = append(steps, core.Step(dt.CellFloat("Step", row)))
		}
	}
	return steps
}

// WriteCSV writes the raster as comma separated values with headers.
func (rs *Raster) WriteCSV(w io.Writer) error {
	return rs.Table.WriteCSV(w, etable.Comma, etable.Headers)
}

// WeightTable returns one row per synapse of the projections with its
// projection name, indexes and weight.
func WeightTable(projs []*snn.Projection) *etable.Table {
	dt := &etable.Table{}
	dt.SetMetaData("name", "Weights")
	sch := etable.Schema{
		{"Projection", etensor.STRING, nil, nil},
		{"Synapse", etensor.INT64, nil, nil},
		{"Pre", etensor.INT64, nil, nil},
		{"Post", etensor.INT64, nil, nil},
		{"Weight", etensor.FLOAT64, nil, nil},
	}
	n := 0
	for _, pj := range projs {
		n += len(pj.Synapses)
	}
	dt.SetFromSchema(sch, n)
	row := 0
	for _, pj := range projs {
		nm := pj.Label()
		for si := range pj.Synapses {
			sy := &pj.Synapses[si]
			dt.SetCellString("Projection", row, nm)
			dt.SetCellFloat("Synapse", row, float64(si))
			dt.SetCellFloat("Pre", row, float64(sy.Pre))
			dt.SetCellFloat("Post", row, float64(sy.Post))
			dt.SetCellFloat("Weight", row, float64(sy.Weight))
			row++
		}
	}
	return dt
}
