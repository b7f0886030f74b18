package scheduler

import (
	"context"

	"github.com/insys-icom/medusa/internal/run"
)

// Runner dispatches one admitted, fully-bound Run and reports its terminal
// Outcome on the returned channel exactly once. internal/supervisor
// implements this for real child processes; tests supply fakes.
type Runner interface {
	Start(ctx context.Context, r *run.Run) <-chan run.Outcome
}

// completion pairs a terminated Run with its Outcome for the stage loop's
// internal fan-in channel.
type completion struct {
	r       *run.Run
	outcome run.Outcome
}

// RunStage drives one stage's Runs through the greedy mutual-exclusion
// admission loop of spec.md §4.5 to completion, blocking until every Run
// in the stage has either dispatched-and-terminated or been marked
// BlockedUnsatisfiable. tracker receives every state transition and
// terminal Outcome.
func RunStage(ctx context.Context, stageRuns []*run.Run, runner Runner, tracker *run.Tracker) {
	queue := make([]*run.Run, len(stageRuns))
	copy(queue, stageRuns)
	for _, r := range queue {
		tracker.Transition(r.ID, run.StateReady)
	}

	held := make(map[string]struct{})
	completions := make(chan completion)
	inFlight := 0

	admit := func() {
		for {
			progressed := false
			for i, r := range queue {
				if r == nil {
					continue
				}
				bound, ok := tryBind(r, held)
				if !ok {
					continue
				}
				queue[i] = nil
				r.Bindings = mergeBindings(r.Bindings, bound)
				for _, tok := range r.EffectiveDeps() {
					held[tok] = struct{}{}
				}
				tracker.Transition(r.ID, run.StateDispatched)
				inFlight++
				done := runner.Start(ctx, r)
				go func(rr *run.Run, d <-chan run.Outcome) {
					completions <- completion{r: rr, outcome: <-d}
				}(r, done)
				progressed = true
			}
			if !progressed {
				return
			}
		}
	}

	admit()

	for inFlight > 0 {
		c := <-completions
		inFlight--
		for _, tok := range c.r.EffectiveDeps() {
			delete(held, tok)
		}
		tracker.SetOutcome(c.r.ID, c.outcome)
		tracker.Transition(c.r.ID, run.StateTerminated)
		admit()
	}

	// The stage has drained: any Run still in queue could never be
	// admitted because nothing remains in flight to release holdings.
	for _, r := range queue {
		if r == nil {
			continue
		}
		tracker.SetOutcome(r.ID, run.OutcomeBlockedUnsatisfiable)
		tracker.Transition(r.ID, run.StateTerminated)
	}
}

// tryBind reports whether r is admissible against held (spec.md §4.5
// step 3(i)/(ii)) and, if so, the DynChoice bindings it would acquire:
// the first option, in declared order, not already in held.
func tryBind(r *run.Run, held map[string]struct{}) (map[string]string, bool) {
	for _, tok := range r.Deps.Static {
		if _, ok := held[tok]; ok {
			return nil, false
		}
	}

	bound := make(map[string]string, len(r.Deps.Dynamic))
	for _, choice := range r.Deps.Dynamic {
		picked := ""
		found := false
		for _, opt := range choice.Options {
			if _, ok := held[opt]; !ok {
				picked = opt
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
		bound[choice.VarName] = picked
	}
	return bound, true
}

func mergeBindings(existing, extra map[string]string) map[string]string {
	out := make(map[string]string, len(existing)+len(extra))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
