// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Medusa - Medusa is a Go-based orchestrator that schedules Robot Framework
suite runs in parallel while arbitrating shared-resource conflicts declared
through medusa:* suite metadata.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

// Package run defines the in-memory Run: one suite-iteration's scheduling
// unit, produced by internal/expand and consumed by internal/scheduler,
// internal/supervisor and internal/dispatch. A Run is never serialized to
// disk; its state lives only for the lifetime of the medusa process.
package run

import (
	"fmt"
	"sync"
	"time"

	"github.com/insys-icom/medusa/internal/depspec"
)

// ID identifies a Run uniquely within one invocation: the suite path plus
// its expansion index (0 for suites with no medusa:for).
type ID struct {
	SuitePath string
	Index     int
}

func (id ID) String() string {
	return fmt.Sprintf("%s#%d", id.SuitePath, id.Index)
}

// Timeout holds the three escalation durations of spec.md §4.6. Hard is
// measured from dispatch; Kill is measured from Hard's expiry, not from
// dispatch.
type Timeout struct {
	Soft time.Duration
	Hard time.Duration
	Kill time.Duration
}

// State is a Run's position in its lifecycle. Transitions are strictly
// forward: Pending -> Ready -> Dispatched -> Terminated.
type State int

const (
	// StatePending means the Run's stage has not started yet.
	StatePending State = iota
	// StateReady means the Run's stage is running and the Run is queued,
	// waiting on the scheduler's admission pass.
	StateReady
	// StateDispatched means the scheduler admitted the Run and the
	// supervisor has started its child process.
	StateDispatched
	// StateTerminated means the Run's process has exited, or been killed,
	// and its resources have been released.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateDispatched:
		return "dispatched"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Outcome records how a Dispatched Run ended, as produced by
// internal/supervisor.
type Outcome int

const (
	// OutcomeUnset means the Run has not terminated yet.
	OutcomeUnset Outcome = iota
	// OutcomeExitedClean means the child process exited on its own before
	// the soft timeout fired.
	OutcomeExitedClean
	// OutcomeExitedAfterSoft means the soft timeout fired (a cooperative
	// signal was sent) and the process then exited on its own before the
	// hard timeout.
	OutcomeExitedAfterSoft
	// OutcomeKilledAtHard means the hard timeout fired and the supervisor
	// force-killed the process.
	OutcomeKilledAtHard
	// OutcomeKilledAtKill means the process survived the hard kill signal
	// and the kill timeout's final, unconditional termination fired.
	OutcomeKilledAtKill
	// OutcomeBlockedUnsatisfiable means the Run's stage drained with this
	// Run still in queue: nothing was left in flight, so nothing was held,
	// and the Run still could not be admitted, which happens only when one
	// of its DynChoice slots has an empty option pool. This Run never
	// dispatched (spec.md §9 open question).
	OutcomeBlockedUnsatisfiable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnset:
		return "unset"
	case OutcomeExitedClean:
		return "exited_clean"
	case OutcomeExitedAfterSoft:
		return "exited_after_soft"
	case OutcomeKilledAtHard:
		return "killed_at_hard"
	case OutcomeKilledAtKill:
		return "killed_at_kill"
	case OutcomeBlockedUnsatisfiable:
		return "blocked_unsatisfiable"
	default:
		return "unknown"
	}
}

// Run is one scheduling unit: a suite, at one expansion index, with its
// resolved stage, dependency model and timeouts. Bindings holds the
// for-loop target values bound for this iteration (empty for suites
// without medusa:for) together with any DynChoice bindings the scheduler
// has made so far.
type Run struct {
	ID       ID
	Stage    string
	Deps     depspec.DepSpec
	Timeout  Timeout
	Bindings map[string]string
	ExitCode int
	Outcome  Outcome
}

// EffectiveDeps returns the Run's fully bound dependency set, given the
// DynChoice bindings recorded in Bindings.
func (r *Run) EffectiveDeps() []string {
	return r.Deps.EffectiveDeps(r.Bindings)
}

// record is the Tracker's per-Run mutable state, guarded by Tracker.mu.
type record struct {
	state   State
	outcome Outcome
}

// Tracker is a concurrency-safe, in-memory-only status table for a batch
// of Runs, grounded on the deleted internal/core/state package's pattern
// of a mutex-protected status map with no disk persistence: spec.md's
// "Persistent scheduler state across runs" non-goal means a Tracker never
// outlives the process that created it.
type Tracker struct {
	mu      sync.Mutex
	records map[ID]*record
}

// NewTracker builds a Tracker with every given Run starting in
// StatePending.
func NewTracker(ids []ID) *Tracker {
	t := &Tracker{records: make(map[ID]*record, len(ids))}
	for _, id := range ids {
		t.records[id] = &record{state: StatePending}
	}
	return t
}

// Transition moves a Run to the given state. It panics if id was never
// registered with NewTracker, since that indicates a programming error in
// the caller, not a runtime condition.
func (t *Tracker) Transition(id ID, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	if !ok {
		panic(fmt.Sprintf("run: Transition on unregistered Run %s", id))
	}
	rec.state = s
}

// SetOutcome records a terminated Run's Outcome.
func (t *Tracker) SetOutcome(id ID, o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	if !ok {
		panic(fmt.Sprintf("run: SetOutcome on unregistered Run %s", id))
	}
	rec.outcome = o
}

// State returns a Run's current state.
func (t *Tracker) State(id ID) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[id].state
}

// Outcome returns a Run's recorded Outcome (OutcomeUnset if not yet
// terminated).
func (t *Tracker) Outcome(id ID) Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[id].outcome
}

// CountInState returns how many tracked Runs are currently in state s.
func (t *Tracker) CountInState(s State) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, rec := range t.records {
		if rec.state == s {
			n++
		}
	}
	return n
}

// AllTerminated reports whether every tracked Run has reached
// StateTerminated.
func (t *Tracker) AllTerminated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range t.records {
		if rec.state != StateTerminated {
			return false
		}
	}
	return true
}
