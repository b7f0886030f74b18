package run

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insys-icom/medusa/internal/depspec"
)

func TestRun_EffectiveDeps(t *testing.T) {
	r := &Run{
		ID: ID{SuitePath: "suite.robot", Index: 0},
		Deps: depspec.DepSpec{
			Static:  []string{"shared"},
			Dynamic: []depspec.DynChoice{{VarName: "PORT", Options: []string{"12", "34"}}},
		},
		Bindings: map[string]string{"PORT": "34"},
	}
	assert.Equal(t, []string{"shared", "34"}, r.EffectiveDeps())
}

func TestID_String(t *testing.T) {
	id := ID{SuitePath: "suites/a.robot", Index: 2}
	assert.Equal(t, "suites/a.robot#2", id.String())
}

func TestTracker_LifecycleTransitions(t *testing.T) {
	a := ID{SuitePath: "a.robot", Index: 0}
	b := ID{SuitePath: "b.robot", Index: 0}
	tr := NewTracker([]ID{a, b})

	assert.Equal(t, StatePending, tr.State(a))
	assert.Equal(t, 2, tr.CountInState(StatePending))
	assert.False(t, tr.AllTerminated())

	tr.Transition(a, StateReady)
	tr.Transition(a, StateDispatched)
	tr.Transition(a, StateTerminated)
	tr.SetOutcome(a, OutcomeExitedClean)

	assert.Equal(t, StateTerminated, tr.State(a))
	assert.Equal(t, OutcomeExitedClean, tr.Outcome(a))
	assert.False(t, tr.AllTerminated())

	tr.Transition(b, StateReady)
	tr.Transition(b, StateDispatched)
	tr.Transition(b, StateTerminated)
	tr.SetOutcome(b, OutcomeKilledAtHard)

	assert.True(t, tr.AllTerminated())
}

func TestTracker_PanicsOnUnregisteredID(t *testing.T) {
	tr := NewTracker(nil)
	assert.Panics(t, func() {
		tr.Transition(ID{SuitePath: "missing.robot"}, StateReady)
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "dispatched", StateDispatched.String())
	assert.Equal(t, "terminated", StateTerminated.String())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "unset", OutcomeUnset.String())
	assert.Equal(t, "exited_clean", OutcomeExitedClean.String())
	assert.Equal(t, "exited_after_soft", OutcomeExitedAfterSoft.String())
	assert.Equal(t, "killed_at_hard", OutcomeKilledAtHard.String())
	assert.Equal(t, "killed_at_kill", OutcomeKilledAtKill.String())
	assert.Equal(t, "blocked_unsatisfiable", OutcomeBlockedUnsatisfiable.String())
}
