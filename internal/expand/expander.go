// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

// Package expand turns one suite's resolved metadata into one or more
// Runs: when medusa:for is absent, exactly one Run with no bindings; when
// present, one Run per for-iteration, with stage/deps/timeout re-resolved
// against that iteration's bindings overlaid on the suite's variable table
// (spec.md §4.3 step 4 — the subtle "re-resolution" rule, since deps and
// stage may themselves reference for-targets).
package expand

import (
	"fmt"
	"strconv"
	"time"

	"github.com/insys-icom/medusa/internal/depspec"
	"github.com/insys-icom/medusa/internal/metadata"
	"github.com/insys-icom/medusa/internal/run"
	"github.com/insys-icom/medusa/internal/value"
)

// Sentinel errors, matched with errors.Is at call sites.
var (
	ErrArityMismatch    = fmt.Errorf("expand: for-clause target/source arity mismatch")
	ErrTargetNotUnbound = fmt.Errorf("expand: for-target or dynamic-dep variable must be declared and unbound")
	ErrBadTimeout       = fmt.Errorf("expand: malformed medusa:timeout entry")
)

// DefaultTimeout applies to any Run whose suite carries no medusa:timeout
// entry.
var DefaultTimeout = run.Timeout{
	Soft: 30 * time.Second,
	Hard: 60 * time.Second,
	Kill: 10 * time.Second,
}

// Source is one suite's already-parsed, not-yet-expanded input: its path
// (used as the Run ID's suite component), its declared variable table, and
// its grouped medusa:* metadata.
type Source struct {
	Path      string
	Variables value.Table
	Meta      *metadata.Metadata
}

// Expand produces the Run set for one suite.
func Expand(src Source) ([]*run.Run, error) {
	if src.Meta.For == nil {
		r, err := buildRun(src, map[string]string{}, 0)
		if err != nil {
			return nil, err
		}
		return []*run.Run{r}, nil
	}

	fc, err := ParseForClause(*src.Meta.For, src.Variables)
	if err != nil {
		return nil, err
	}
	iterations, err := fc.Iterations()
	if err != nil {
		return nil, err
	}

	runs := make([]*run.Run, 0, len(iterations))
	for i, it := range iterations {
		r, err := buildRun(src, it.Bindings, i)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// buildRun re-resolves stage, deps and timeout against the variable table
// overlaid with one iteration's bindings, then assembles the Run.
func buildRun(src Source, bindings map[string]string, index int) (*run.Run, error) {
	table := src.Variables.Overlay(bindings)

	stageVal, err := value.Resolve(joinTokens(src.Meta.Stage.Tokens), table)
	if err != nil {
		return nil, fmt.Errorf("expand: resolving %s: %w", metadata.KeyStage, err)
	}
	if stageVal.Kind != value.KindScalar {
		return nil, fmt.Errorf("expand: %s must resolve to a scalar", metadata.KeyStage)
	}

	var plain []string
	var clauses []value.AnyClause
	for _, depEntry := range src.Meta.Deps {
		p, c, err := value.ResolveDepsTokens(depEntry.Tokens, table)
		if err != nil {
			return nil, fmt.Errorf("expand: resolving %s: %w", metadata.KeyDeps, err)
		}
		plain = append(plain, p...)
		clauses = append(clauses, c...)
	}
	for _, c := range clauses {
		if v, ok := src.Variables[c.VarName]; !ok || !v.IsUnbound() {
			return nil, fmt.Errorf("%w: dynamic-dep variable %q", ErrTargetNotUnbound, c.VarName)
		}
	}
	depSpec, err := depspec.Partition(plain, clauses, table)
	if err != nil {
		return nil, err
	}

	timeout := DefaultTimeout
	if src.Meta.Timeout != nil {
		timeout, err = resolveTimeout(*src.Meta.Timeout, table)
		if err != nil {
			return nil, err
		}
	}

	return &run.Run{
		ID:       run.ID{SuitePath: src.Path, Index: index},
		Stage:    stageVal.Scalar,
		Deps:     depSpec,
		Timeout:  timeout,
		Bindings: bindings,
	}, nil
}

func joinTokens(tokens []string) string {
	out := tokens[0]
	for _, t := range tokens[1:] {
		out += " " + t
	}
	return out
}

// resolveTimeout resolves a medusa:timeout entry's three comma-separated
// tokens against table and parses them as whole seconds. Every component
// must be positive and hard must not be shorter than soft.
func resolveTimeout(entry metadata.RawEntry, table value.Table) (run.Timeout, error) {
	parts, err := metadata.TimeoutTokens(entry)
	if err != nil {
		return run.Timeout{}, err
	}

	durations := make([]time.Duration, 3)
	for i, p := range parts {
		resolved, err := value.Resolve(p, table)
		if err != nil {
			return run.Timeout{}, fmt.Errorf("%w: %v", ErrBadTimeout, err)
		}
		if resolved.Kind != value.KindScalar {
			return run.Timeout{}, fmt.Errorf("%w: component %q is not a scalar", ErrBadTimeout, p)
		}
		seconds, err := strconv.Atoi(resolved.Scalar)
		if err != nil {
			return run.Timeout{}, fmt.Errorf("%w: component %q is not an integer number of seconds", ErrBadTimeout, resolved.Scalar)
		}
		durations[i] = time.Duration(seconds) * time.Second
	}
	if durations[0] <= 0 || durations[1] <= 0 || durations[2] <= 0 {
		return run.Timeout{}, fmt.Errorf("%w: all components must be positive", ErrBadTimeout)
	}
	if durations[1] < durations[0] {
		return run.Timeout{}, fmt.Errorf("%w: hard must be >= soft", ErrBadTimeout)
	}

	return run.Timeout{Soft: durations[0], Hard: durations[1], Kill: durations[2]}, nil
}
