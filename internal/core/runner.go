package core

// runner.go is the host-side loop that drives stages step by step.
//
// The loop owns the cadence: it checks for cancellation between steps,
// reports progress every few steps, and stops the run on the first contract
// violation. Diagnostics already in the sink stay valid when a run stops
// early.

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultProgressEvery is how many steps pass between progress callbacks.
const DefaultProgressEvery = 100

// RunOptions controls a single RunStages call.
type RunOptions struct {
	RunID         string
	ProgressEvery int              // Steps between progress reports (default: 100)
	OnProgress    ProgressCallback // Optional
}

// RunStages runs every stage to completion, or until ctx is done or a stage
// reports a contract violation. The returned result always carries the
// progress reached and the messages appended to log.
func RunStages(ctx context.Context, stages []Stage, log *MessageLog, opts RunOptions) RunResult {
	every := opts.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	start := time.Now()
	progress := RunProgress{RunID: opts.RunID, Phase: PhaseChecking}
	notify := func() {
		if opts.OnProgress != nil {
			progress.Messages = log.Len()
			opts.OnProgress(progress)
		}
	}

	finish := func(phase RunPhase, err error) RunResult {
		progress.Phase = phase
		if err != nil {
			progress.Error = err.Error()
		}
		notify()
		return RunResult{
			RunID:      opts.RunID,
			Phase:      phase,
			TotalSteps: progress.TotalSteps,
			StepsDone:  progress.StepsDone,
			Messages:   log.Messages(),
			StartedAt:  start,
			Duration:   time.Since(start),
			Error:      progress.Error,
		}
	}

	// Step counts are known up front so progress covers the whole run.
	totals := make([]int, len(stages))
	for i, st := range stages {
		totals[i] = st.Setup()
		progress.TotalSteps += totals[i]
	}

	for i, st := range stages {
		progress.Stage = st.Name()
		notify()

		for step := 0; step < totals[i]; step++ {
			if err := ctx.Err(); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return finish(PhaseFailed, err)
				}
				return finish(PhaseCancelled, err)
			}

			if err := st.Perform(step, log); err != nil {
				return finish(PhaseFailed, fmt.Errorf("stage %s step %d: %w", st.Name(), step, err))
			}

			progress.StepsDone++
			if progress.StepsDone%every == 0 {
				notify()
			}
		}
	}

	return finish(PhaseComplete, nil)
}
