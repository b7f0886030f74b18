// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

// Package orchestrator wires suite discovery, metadata parsing, Run
// expansion, per-stage scheduling, and process supervision into the single
// entry point internal/cli's run command calls. It is the one place that
// knows about every other package in the module.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/insys-icom/medusa/internal/expand"
	"github.com/insys-icom/medusa/internal/history"
	"github.com/insys-icom/medusa/internal/logging"
	"github.com/insys-icom/medusa/internal/metadata"
	"github.com/insys-icom/medusa/internal/run"
	"github.com/insys-icom/medusa/internal/scheduler"
	"github.com/insys-icom/medusa/internal/suite"
	"github.com/insys-icom/medusa/internal/supervisor"
)

// Options configures one orchestration pass over a set of suite files.
type Options struct {
	RobotBin  string
	OutputDir string
	ExtraArgs []string // forwarded to the robot binary after "--"
	Logger    logging.Logger
	History   *history.Store // may be nil/no-op

	// Runner overrides the process Supervisor Execute would otherwise
	// construct from RobotBin/ExtraArgs — tests supply a fake here.
	Runner scheduler.Runner
}

// DiscoverSuites walks roots collecting every *.robot file, sorted for a
// deterministic dispatch order across repeated invocations.
func DiscoverSuites(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: stat %s: %w", root, err)
		}
		if !info.IsDir() {
			paths = append(paths, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if filepath.Ext(path) == ".robot" {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("orchestrator: walking %s: %w", root, err)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ExpandAll parses and expands every suite path into its Run set, in the
// order the paths are given.
func ExpandAll(paths []string) ([]*run.Run, error) {
	var all []*run.Run
	for _, path := range paths {
		s, err := suite.ParseFile(path)
		if err != nil {
			return nil, err
		}
		meta, err := metadata.Read(s.Entries)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %s: %w", path, err)
		}
		runs, err := expand.Expand(expand.Source{Path: s.Path, Variables: s.Variables, Meta: meta})
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %s: %w", path, err)
		}
		all = append(all, runs...)
	}
	return all, nil
}

// Execute runs every stage of runs, in byte-lexicographic stage order, to
// completion — stages never run concurrently with one another, only the
// Runs within a stage do (spec.md §4.5). It returns the Tracker recording
// every Run's terminal state and Outcome.
func Execute(ctx context.Context, runs []*run.Run, opts Options) (*run.Tracker, error) {
	ids := make([]run.ID, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	tracker := run.NewTracker(ids)

	runner := opts.Runner
	if runner == nil {
		runner = &supervisor.Supervisor{
			Commander: supervisor.NewCommander(),
			RobotBin:  opts.RobotBin,
			ExtraArgs: opts.ExtraArgs,
			Logger:    opts.Logger,
			Output:    outputFuncFor(opts.OutputDir),
		}
	}

	byStage := scheduler.GroupByStage(runs)
	for _, stage := range scheduler.StagesOf(runs) {
		scheduler.RunStage(ctx, byStage[stage], runner, tracker)
		recordStage(ctx, byStage[stage], opts.History, opts.Logger)
	}

	return tracker, nil
}

// recordStage writes every terminated Run in stageRuns to the history
// store. A nil/no-op store makes this a no-op, and a failed write is
// logged rather than aborting the remaining stages — history is a
// reporting side-channel, never scheduler state.
func recordStage(ctx context.Context, stageRuns []*run.Run, store *history.Store, logger logging.Logger) {
	if store == nil {
		return
	}
	for _, r := range stageRuns {
		if err := store.Record(ctx, history.RecordFromRun(r, time.Now())); err != nil && logger != nil {
			logger.Error("orchestrator: recording run history failed", logging.NewField("run", r.ID.String()), logging.NewField("error", err.Error()))
		}
	}
}

// outputFuncFor returns a supervisor.OutputFunc writing each Run's stdout
// and stderr to <outputDir>/<suite>#<index>.{out,err}, or nil (discard)
// when outputDir is empty.
func outputFuncFor(outputDir string) supervisor.OutputFunc {
	if outputDir == "" {
		return nil
	}
	return func(id run.ID) (io.Writer, io.Writer) {
		base := filepath.Join(outputDir, sanitizeRunID(id))
		stdout, errOut := openOrDiscard(base + ".out"), openOrDiscard(base + ".err")
		return stdout, errOut
	}
}

func openOrDiscard(path string) io.Writer {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return io.Discard
	}
	f, err := os.Create(path) //nolint:gosec // G304: path derived from configured output dir + run ID
	if err != nil {
		return io.Discard
	}
	return f
}

func sanitizeRunID(id run.ID) string {
	safe := make([]byte, 0, len(id.SuitePath))
	for i := 0; i < len(id.SuitePath); i++ {
		c := id.SuitePath[i]
		if c == filepath.Separator || c == '/' {
			safe = append(safe, '_')
			continue
		}
		safe = append(safe, c)
	}
	return fmt.Sprintf("%s#%d", string(safe), id.Index)
}
