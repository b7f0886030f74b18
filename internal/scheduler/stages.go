// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

// Package scheduler owns the execution of one stage at a time: a
// byte-lexicographic ordering of distinct stage labels, and, within each
// stage, the greedy mutual-exclusion admitter of spec.md §4.5. The
// stage-grouping pass below is adapted from pkg/engine.SlicePlan's
// collect-then-stable-sort idiom, rewritten for Run/stage partitioning
// instead of PlanStep/HostPlan.
package scheduler

import (
	"sort"

	"github.com/insys-icom/medusa/internal/run"
)

// StagesOf returns the distinct stage labels present in runs, sorted
// byte-lexicographically (spec.md §9 open question: sort is strictly
// byte-lexicographic, not locale-aware, for reproducibility).
func StagesOf(runs []*run.Run) []string {
	seen := make(map[string]struct{})
	stages := make([]string, 0)
	for _, r := range runs {
		if _, ok := seen[r.Stage]; ok {
			continue
		}
		seen[r.Stage] = struct{}{}
		stages = append(stages, r.Stage)
	}
	sort.Strings(stages)
	return stages
}

// GroupByStage partitions runs by their Stage label, preserving each
// Run's relative position within its stage (queue order) — the greedy
// admitter requires this order never be disturbed (spec.md §4.5:
// "Admission scanning order is the queue order; it is not re-sorted").
func GroupByStage(runs []*run.Run) map[string][]*run.Run {
	groups := make(map[string][]*run.Run)
	for _, r := range runs {
		groups[r.Stage] = append(groups[r.Stage], r)
	}
	return groups
}
