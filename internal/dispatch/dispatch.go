// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

// Package dispatch builds a Run's child-process invocation: the argv
// forwarded to the robot binary, carrying both the Run's own for-bindings
// and the three MEDUSA_* variables a suite's keywords may read back
// (spec.md §6). It never starts the process itself — internal/supervisor
// owns the process lifecycle.
package dispatch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/insys-icom/medusa/internal/metadata"
	"github.com/insys-icom/medusa/internal/run"
	"github.com/insys-icom/medusa/pkg/executil"
)

// Invocation is the fully-built argv for one Run, ready to append to the
// configured robot binary path.
type Invocation struct {
	Args []string
}

// FormatDeps joins an ordered dep slice with exactly four spaces, matching
// the suite-side Metadata cell-splitting convention of internal/suite's
// cellSplit regex ("\t|  +") so a rewritten medusa:deps line round-trips
// through the same reader a suite author's file does.
func FormatDeps(deps []string) string {
	return strings.Join(deps, "    ")
}

// RewriteDepsLine renders r's effective deps as a full Metadata setting
// line suitable for a suite-level log of what was actually dispatched
// (spec.md §6's "rewritten medusa:deps line" requirement) — the bound
// values, not the original ANY ... IN ... clauses.
func RewriteDepsLine(r *run.Run) string {
	return fmt.Sprintf("Metadata    %s    %s", metadata.KeyDeps, FormatDeps(r.EffectiveDeps()))
}

// BuildInvocation assembles the --variable flags and suite path for r,
// per spec.md §6: one --variable per Bindings entry (for-targets and bound
// DynChoice variables), then the three MEDUSA_* variables, then the suite
// path as the final positional arg. MEDUSA_FOR carries only the for-target
// bindings.
// extraArgs are forwarded robot flags from the CLI's "--" split (§6.3) and
// are inserted before the suite path.
func BuildInvocation(r *run.Run, extraArgs []string) (Invocation, error) {
	args := make([]string, 0, 2*len(r.Bindings)+6+len(extraArgs)+1)

	for _, name := range sortedKeys(r.Bindings) {
		args = append(args, "--variable", fmt.Sprintf("%s:%s", name, r.Bindings[name]))
	}

	args = append(args, "--variable", fmt.Sprintf("MEDUSA_STAGE:%s", r.Stage))
	args = append(args, "--variable", fmt.Sprintf("MEDUSA_DEPS:%s", strings.Join(r.EffectiveDeps(), ",")))

	forTargets := make(map[string]string, len(r.Bindings))
	for name, v := range r.Bindings {
		forTargets[name] = v
	}
	for _, c := range r.Deps.Dynamic {
		delete(forTargets, c.VarName)
	}
	forJSON, err := json.Marshal(forTargets)
	if err != nil {
		return Invocation{}, fmt.Errorf("dispatch: encoding MEDUSA_FOR for %s: %w", r.ID, err)
	}
	args = append(args, "--variable", fmt.Sprintf("MEDUSA_FOR:%s", forJSON))

	args = append(args, extraArgs...)
	args = append(args, r.ID.SuitePath)

	return Invocation{Args: args}, nil
}

// ToExecutilCommand renders r's invocation as a pkg/executil.Command, for
// the CLI's --dry-run preview path — it is only displayed, never started,
// since internal/supervisor owns the actual dispatched process lifecycle.
func ToExecutilCommand(robotBin string, r *run.Run, extraArgs []string) (executil.Command, error) {
	inv, err := BuildInvocation(r, extraArgs)
	if err != nil {
		return executil.Command{}, err
	}
	return executil.NewCommand(robotBin, inv.Args...), nil
}

// sortedKeys returns m's keys in byte-lexicographic order, so the
// --variable flag sequence (and therefore the invocation argv) is
// deterministic across runs with the same bindings.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
