package supervisor

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/insys-icom/medusa/internal/dispatch"
	"github.com/insys-icom/medusa/internal/run"
)

// Logger is the minimal logging abstraction the Supervisor needs,
// satisfied by internal/logging.Logger.
type Logger interface {
	Errorf(format string, args ...any)
}

// OutputFunc returns the stdout/stderr writers a dispatched Run's child
// process should write to — typically files under the configured output
// directory, keyed by Run ID. A nil OutputFunc discards output.
type OutputFunc func(id run.ID) (stdout, stderr io.Writer)

// Supervisor dispatches Runs and escalates through the soft/hard/kill
// timers of spec.md §4.6. It implements internal/scheduler.Runner.
type Supervisor struct {
	Commander Commander
	RobotBin  string
	ExtraArgs []string
	Logger    Logger
	Output    OutputFunc
}

// Start implements internal/scheduler.Runner: it builds r's invocation,
// starts the child process, and runs the timer escalation in a goroutine,
// reporting r's terminal Outcome on the returned channel exactly once.
func (s *Supervisor) Start(ctx context.Context, r *run.Run) <-chan run.Outcome {
	out := make(chan run.Outcome, 1)
	go s.supervise(ctx, r, out)
	return out
}

func (s *Supervisor) supervise(ctx context.Context, r *run.Run, out chan<- run.Outcome) {
	inv, err := dispatch.BuildInvocation(r, s.ExtraArgs)
	if err != nil {
		s.logf("supervisor: building invocation for %s: %v", r.ID, err)
		r.ExitCode = -1
		out <- run.OutcomeKilledAtKill
		return
	}

	cmd := s.Commander.Command(ctx, s.RobotBin, inv.Args...)
	if s.Output != nil {
		stdout, stderr := s.Output(r.ID)
		cmd.SetStdout(stdout)
		cmd.SetStderr(stderr)
	} else {
		cmd.SetStdout(io.Discard)
		cmd.SetStderr(io.Discard)
	}

	if err := cmd.Start(); err != nil {
		s.logf("supervisor: starting %s: %v", r.ID, err)
		r.ExitCode = -1
		out <- run.OutcomeKilledAtKill
		return
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	soft := time.NewTimer(r.Timeout.Soft)
	hard := time.NewTimer(r.Timeout.Hard)
	defer soft.Stop()
	defer hard.Stop()

	var killCh <-chan time.Time
	var kill *time.Timer
	softFired := false
	hardFired := false

	onHard := func() {
		hardFired = true
		if err := cmd.Kill(); err != nil {
			s.logf("supervisor: hard kill for %s: %v", r.ID, err)
		}
		kill = time.NewTimer(r.Timeout.Kill)
		killCh = kill.C
	}
	defer func() {
		if kill != nil {
			kill.Stop()
		}
	}()

	for {
		// A ready hard timer always takes precedence over a completed
		// wait or a bare soft signal: when Soft == Hard, both timer
		// channels can become ready in the same instant, and without
		// this priority check the select below could nondeterministically
		// report OutcomeExitedAfterSoft instead of collapsing to
		// OutcomeKilledAtHard.
		if !hardFired {
			select {
			case <-hard.C:
				onHard()
			default:
			}
		}

		select {
		case waitErr := <-waitCh:
			r.ExitCode = exitCodeOf(waitErr)
			switch {
			case hardFired:
				out <- run.OutcomeKilledAtHard
			case softFired:
				out <- run.OutcomeExitedAfterSoft
			default:
				out <- run.OutcomeExitedClean
			}
			return

		case <-soft.C:
			softFired = true
			if err := cmd.Signal(); err != nil {
				s.logf("supervisor: soft signal for %s: %v", r.ID, err)
			}

		case <-hard.C:
			onHard()

		case <-killCh:
			if err := cmd.Kill(); err != nil {
				s.logf("supervisor: kill escalation for %s: %v", r.ID, err)
			}
			r.ExitCode = -1
			out <- run.OutcomeKilledAtKill
			// The process may still be reaping; drain asynchronously so
			// cmd.Wait()'s goroutine does not leak.
			go func() { <-waitCh }()
			return
		}
	}
}

func (s *Supervisor) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Errorf(format, args...)
	}
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
