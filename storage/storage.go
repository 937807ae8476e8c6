// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storage persists spike rasters and network snapshots in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/emer/spiking/backend"
	"github.com/emer/spiking/core"
	"github.com/emer/spiking/logger"

	_ "modernc.org/sqlite"
)

// Store is a SQLite database of runs.
type Store struct {
	db  *sql.DB
	log *log.Logger
}

// Run is a stored run.
type Run struct {
	ID        string
	Name      string
	Scheduler string
}

// SpikeRecord is one stored spike.
type SpikeRecord struct {
	Step   core.Step
	Sender string
	Neuron uint32
}

// NeuronRecord is the stored state of one neuron.
type NeuronRecord struct {
	Population           string
	Neuron               int
	Potential            float32
	DynamicThreshold     float32
	Stability            float32
	FreeSynapticResource float32
}

// New opens or creates the database at path; ":memory:" gives a private
// in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer, and a single in-memory database
	db.SetMaxOpenConns(1)

	st := &Store{db: db, log: logger.NewComponentLogger("storage")}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	st.log.Debug("database opened", "path", path)
	return st, nil
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		scheduler TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS spikes (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		sender TEXT NOT NULL,
		neuron INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS weights (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		projection TEXT NOT NULL,
		synapse INTEGER NOT NULL,
		pre INTEGER NOT NULL,
		post INTEGER NOT NULL,
		weight REAL NOT NULL,
		PRIMARY KEY (run_id, step, projection, synapse),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS neurons (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		population TEXT NOT NULL,
		neuron INTEGER NOT NULL,
		potential REAL NOT NULL,
		dynamic_threshold REAL NOT NULL,
		stability REAL NOT NULL,
		free_resource REAL NOT NULL,
		PRIMARY KEY (run_id, step, population, neuron),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_spikes_run_sender ON spikes(run_id, sender);
	`
	_, err := st.db.Exec(schema)
	return err
}

// Close closes the database.
func (st *Store) Close() error {
	return st.db.Close()
}

// CreateRun registers a run and returns its id.
func (st *Store) CreateRun(ctx context.Context, name string, sched backend.Schedulers) (string, error) {
	id := core.NewUID().String()
	_, err := st.db.ExecContext(ctx, `INSERT INTO runs (id, name, scheduler) VALUES (?, ?, ?)`, id, name, sched.String())
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	st.log.Info("run created", "run", id, "name", name)
	return id, nil
}

// Runs returns the stored runs, oldest first.
func (st *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := st.db.QueryContext(ctx, `SELECT id, name, scheduler FROM runs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.Scheduler); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveSpikes stores the spikes of the messages. names maps sender uids to
// stored names; other senders are stored by uid.
func (st *Store) SaveSpikes(ctx context.Context, runID string, msgs []*core.SpikeMessage, names map[core.UID]string) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO spikes (run_id, step, sender, neuron) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare spike insert: %w", err)
	}
	defer stmt.Close()
	n := 0
	for _, msg := range msgs {
		snd, ok := names[msg.SenderUID]
		if !ok {
			snd = msg.SenderUID.String()
		}
		for _, idx := range msg.NeuronIndexes {
			if _, err := stmt.ExecContext(ctx, runID, int64(msg.SendTime), snd, int64(idx)); err != nil {
				return fmt.Errorf("failed to insert spike: %w", err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit spikes: %w", err)
	}
	st.log.Debug("spikes saved", "run", runID, "n", n)
	return nil
}

// LoadSpikes returns the spikes of a sender in a run, ordered by step and neuron.
func (st *Store) LoadSpikes(ctx context.Context, runID, sender string) ([]SpikeRecord, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT step, sender, neuron FROM spikes
		WHERE run_id = ? AND sender = ?
		ORDER BY step, neuron
	`, runID, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to query spikes: %w", err)
	}
	defer rows.Close()
	var recs []SpikeRecord
	for rows.Next() {
		var (
			step, neuron int64
			snd          string
		)
		if err := rows.Scan(&step, &snd, &neuron); err != nil {
			return nil, fmt.Errorf("failed to scan spike: %w", err)
		}
		recs = append(recs, SpikeRecord{Step: core.Step(step), Sender: snd, Neuron: uint32(neuron)})
	}
	return recs, rows.Err()
}

// SaveNetwork stores the weights of every synapse and the main state of
// every neuron of the snapshot, keyed by its step.
func (st *Store) SaveNetwork(ctx context.Context, runID string, nd *backend.NetworkData) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	wstmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO weights (run_id, step, projection, synapse, pre, post, weight)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare weight insert: %w", err)
	}
	defer wstmt.Close()
	for _, pj := range nd.Projs {
		nm := pj.Label()
		for si := range pj.Synapses {
			sy := &pj.Synapses[si]
			if _, err := wstmt.ExecContext(ctx, runID, int64(nd.Step), nm, si, int64(sy.Pre), int64(sy.Post), float64(sy.Weight)); err != nil {
				return fmt.Errorf("failed to insert weight: %w", err)
			}
		}
	}

	nstmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO neurons (run_id, step, population, neuron, potential, dynamic_threshold, stability, free_resource)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare neuron insert: %w", err)
	}
	defer nstmt.Close()
	for _, pop := range nd.Pops {
		nm := pop.Label()
		for ni := range pop.Neurons {
			nrn := &pop.Neurons[ni]
			if _, err := nstmt.ExecContext(ctx, runID, int64(nd.Step), nm, ni, float64(nrn.Potential), float64(nrn.DynamicThreshold), float64(nrn.Stability), float64(nrn.FreeSynapticResource)); err != nil {
				return fmt.Errorf("failed to insert neuron: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit network: %w", err)
	}
	st.log.Debug("network saved", "run", runID, "step", nd.Step, "populations", len(nd.Pops), "projections", len(nd.Projs))
	return nil
}

// LoadWeights returns the weights of a projection saved at step, by synapse index.
func (st *Store) LoadWeights(ctx context.Context, runID, projection string, step core.Step) ([]float32, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT weight FROM weights
		WHERE run_id = ? AND projection = ? AND step = ?
		ORDER BY synapse
	`, runID, projection, int64(step))
	if err != nil {
		return nil, fmt.Errorf("failed to query weights: %w", err)
	}
	defer rows.Close()
	var wts []float32
	for rows.Next() {
		var w float64
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		wts = append(wts, float32(w))
	}
	return wts, rows.Err()
}

// LoadNeurons returns the neuron states of a population saved at step.
func (st *Store) LoadNeurons(ctx context.Context, runID, population string, step core.Step) ([]NeuronRecord, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT population, neuron, potential, dynamic_threshold, stability, free_resource FROM neurons
		WHERE run_id = ? AND population = ? AND step = ?
		ORDER BY neuron
	`, runID, population, int64(step))
	if err != nil {
		return nil, fmt.Errorf("failed to query neurons: %w", err)
	}
	defer rows.Close()
	var recs []NeuronRecord
	for rows.Next() {
		var (
			rec                 NeuronRecord
			pot, thr, stab, res float64
		)
		if err := rows.Scan(&rec.Population, &rec.Neuron, &pot, &thr, &stab, &res); err != nil {
			return nil, fmt.Errorf("failed to scan neuron: %w", err)
		}
		rec.Potential, rec.DynamicThreshold = float32(pot), float32(thr)
		rec.Stability, rec.FreeSynapticResource = float32(stab), float32(res)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
