// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

// Package history records completed Runs to an optional Postgres sink for
// the `medusa stats` subcommand. It is explicitly NOT scheduler state:
// the scheduler never reads from it, and a Store is a pure write-behind
// log of what already happened — wired from the teacher's deleted
// internal/providers/migration/raw engine, whose sql.Open("pgx", ...) +
// ensure-table + transactional-insert shape is reused here for a record
// sink instead of a migration runner.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/insys-icom/medusa/internal/run"
)

// Record is one terminated Run as recorded to the history store.
type Record struct {
	SuitePath  string
	Index      int
	Stage      string
	Deps       []string
	Outcome    run.Outcome
	ExitCode   int
	RecordedAt time.Time
}

// Store is a Postgres-backed sink for Records. A zero-value Store (no DB)
// is a deliberate no-op: Record silently does nothing, so medusa runs
// identically whether or not history.DatabaseURL is configured.
type Store struct {
	db *sql.DB
}

// Open connects to dbURL and ensures the history table exists. An empty
// dbURL returns a no-op Store rather than an error, since history is an
// optional sink (spec.md's non-goal of persistent scheduler state; this
// store is a reporting side-channel, never consulted by the scheduler).
func Open(ctx context.Context, dbURL string) (*Store, error) {
	if dbURL == "" {
		return &Store{}, nil
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("history: connecting to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureTable(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS medusa_run_history (
			id          BIGSERIAL PRIMARY KEY,
			suite_path  TEXT NOT NULL,
			run_index   INTEGER NOT NULL,
			stage       TEXT NOT NULL,
			deps        TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			exit_code   INTEGER NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("history: ensuring table: %w", err)
	}
	return nil
}

// Record inserts rec into the history table. A no-op Store (db == nil)
// returns nil without touching anything.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if s.db == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: starting transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO medusa_run_history
			(suite_path, run_index, stage, deps, outcome, exit_code, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.SuitePath, rec.Index, rec.Stage, formatDeps(rec.Deps), rec.Outcome.String(), rec.ExitCode, rec.RecordedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("history: recording %s#%d: %w", rec.SuitePath, rec.Index, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: committing %s#%d: %w", rec.SuitePath, rec.Index, err)
	}
	return nil
}

// OutcomeCount is one row of Summary's aggregate report.
type OutcomeCount struct {
	Stage   string
	Outcome string
	Count   int
}

// Summary reports how many recorded Runs terminated with each
// (stage, outcome) pair, most frequent first. An unconfigured (no-op)
// Store returns an empty summary rather than an error.
func (s *Store) Summary(ctx context.Context) ([]OutcomeCount, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, outcome, COUNT(*) AS n
		FROM medusa_run_history
		GROUP BY stage, outcome
		ORDER BY n DESC, stage, outcome
	`)
	if err != nil {
		return nil, fmt.Errorf("history: querying summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []OutcomeCount
	for rows.Next() {
		var oc OutcomeCount
		if err := rows.Scan(&oc.Stage, &oc.Outcome, &oc.Count); err != nil {
			return nil, fmt.Errorf("history: scanning summary row: %w", err)
		}
		out = append(out, oc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating summary rows: %w", err)
	}
	return out, nil
}

func formatDeps(deps []string) string {
	out := ""
	for i, d := range deps {
		if i > 0 {
			out += ","
		}
		out += d
	}
	return out
}

// RecordFromRun builds a Record from a terminated Run.
func RecordFromRun(r *run.Run, at time.Time) Record {
	return Record{
		SuitePath:  r.ID.SuitePath,
		Index:      r.ID.Index,
		Stage:      r.Stage,
		Deps:       r.EffectiveDeps(),
		Outcome:    r.Outcome,
		ExitCode:   r.ExitCode,
		RecordedAt: at,
	}
}
