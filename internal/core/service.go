package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned for unknown or expired run ids.
var ErrRunNotFound = errors.New("check run not found")

// ServiceConfig holds the run settings of a Service.
// Zero values fall back to defaults.
type ServiceConfig struct {
	MaxConcurrent int           // Parallel runs (default: 2)
	MaxWait       time.Duration // Wait for a run slot (default: 10s)
	Timeout       time.Duration // Per-run timeout (default: 5m)
	ProgressEvery int           // Steps between progress events (default: 100)
	ResultTTL     time.Duration // How long finished runs stay in memory (default: 10m)
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = DefaultProgressEvery
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = 10 * time.Minute
	}
	return c
}

// Service runs referenceable checks in the background and tracks them.
type Service struct {
	source     Source
	results    ResultStore // optional
	validators ValidatorLookup
	limiter    *RunLimiter
	cfg        ServiceConfig

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	ID          string
	TriggeredBy string
	Cancel      context.CancelFunc
	Done        chan struct{}

	mu        sync.Mutex
	progress  RunProgress
	result    *RunResult
	listeners []chan RunProgress
}

// NewService creates a Service. results may be nil, in which case finished
// runs are only kept in memory for cfg.ResultTTL.
func NewService(source Source, results ResultStore, cfg ServiceConfig) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		source:     source,
		results:    results,
		validators: RegistryValidators(),
		limiter:    NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:        cfg,
		runs:       make(map[string]*activeRun),
	}
}

// WithValidators replaces the validator lookup. Used by tests.
func (s *Service) WithValidators(v ValidatorLookup) *Service {
	s.validators = v
	return s
}

// ListKinds returns the registered kinds in step order.
func (s *Service) ListKinds() []KindInfo {
	defs := All()
	infos := make([]KindInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info()
	}
	return infos
}

// StartRun begins an asynchronous check run and returns its id.
// Returns ErrTooManyRuns if no run slot frees up in time.
func (s *Service) StartRun(ctx context.Context) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)

	run := &activeRun{
		ID:          runID,
		TriggeredBy: TriggeredByFromContext(ctx),
		Cancel:      cancel,
		Done:        make(chan struct{}),
		progress:    RunProgress{RunID: runID, Phase: PhaseStarting},
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	go s.processRun(runCtx, run)

	return runID, nil
}

// RunNow runs a check synchronously and returns its result.
func (s *Service) RunNow(ctx context.Context) (*RunResult, error) {
	runID, err := s.StartRun(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetRunResult(ctx, runID)
}

func (s *Service) processRun(ctx context.Context, run *activeRun) {
	defer s.limiter.Release()
	defer run.Cancel()

	logger := slog.With("run_id", run.ID)
	logger.Info("check run started", "triggered_by", run.TriggeredBy)

	run.setProgress(RunProgress{RunID: run.ID, Phase: PhaseLoading})

	var result RunResult
	records, err := s.source.Load(ctx)
	if err != nil {
		phase := PhaseFailed
		if errors.Is(err, context.Canceled) {
			phase = PhaseCancelled
		}
		result = RunResult{RunID: run.ID, Phase: phase, StartedAt: time.Now(), Error: fmt.Sprintf("load records: %v", err)}
		run.setProgress(RunProgress{RunID: run.ID, Phase: phase, Error: result.Error})
	} else {
		stage := NewReferenceableCheckStage(records, s.validators)
		result = RunStages(ctx, []Stage{stage}, &MessageLog{}, RunOptions{
			RunID:         run.ID,
			ProgressEvery: s.cfg.ProgressEvery,
			OnProgress:    run.setProgress,
		})
	}
	result.TriggeredBy = run.TriggeredBy

	switch result.Phase {
	case PhaseComplete:
		logger.Info("check run completed",
			"steps", result.StepsDone,
			"messages", len(result.Messages),
			"duration_ms", result.Duration.Milliseconds(),
		)
	case PhaseCancelled:
		logger.Info("check run cancelled", "steps", result.StepsDone, "of", result.TotalSteps)
	default:
		logger.Error("check run failed", "error", result.Error, "steps", result.StepsDone)
	}

	if s.results != nil {
		// The run context may already be cancelled; storing must still happen.
		saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := s.results.SaveResult(saveCtx, &result); err != nil {
			logger.Error("failed to store check result", "error", err)
		}
		cancel()
	}

	run.finish(&result)
	s.cleanup(run.ID, s.cfg.ResultTTL)
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the run completes.
func (s *Service) SubscribeProgress(runID string) (<-chan RunProgress, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan RunProgress, 10)

	run.mu.Lock()
	defer run.mu.Unlock()

	ch <- run.progress
	if run.result != nil {
		close(ch)
		return ch, nil
	}
	run.listeners = append(run.listeners, ch)
	return ch, nil
}

// CancelRun cancels an in-progress run.
func (s *Service) CancelRun(runID string) error {
	run, err := s.lookup(runID)
	if err != nil {
		return err
	}
	run.Cancel()
	return nil
}

// GetRunProgress returns the current progress without blocking.
func (s *Service) GetRunProgress(runID string) (RunProgress, error) {
	run, err := s.lookup(runID)
	if err != nil {
		return RunProgress{}, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.progress, nil
}

// GetRunResult waits for the run to finish and returns its result.
// Runs no longer tracked in memory are read from the result store.
func (s *Service) GetRunResult(ctx context.Context, runID string) (*RunResult, error) {
	run, err := s.lookup(runID)
	if errors.Is(err, ErrRunNotFound) && s.results != nil {
		return s.results.GetResult(ctx, runID)
	}
	if err != nil {
		return nil, err
	}

	select {
	case <-run.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	return run.result, nil
}

// ListRuns returns the most recent stored runs.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if s.results == nil {
		return nil, nil
	}
	return s.results.ListResults(ctx, limit)
}

// LimiterStatus returns the run limiter state.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until active runs finish or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) lookup(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// cleanup removes the run from tracking after a delay.
func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}

// setProgress stores p and fans it out to listeners. Slow listeners miss
// intermediate updates.
func (run *activeRun) setProgress(p RunProgress) {
	run.mu.Lock()
	defer run.mu.Unlock()

	run.progress = p
	for _, ch := range run.listeners {
		select {
		case ch <- p:
		default:
		}
	}
}

// finish records the result, closes listeners and releases waiters.
func (run *activeRun) finish(result *RunResult) {
	run.mu.Lock()
	run.result = result
	run.progress = RunProgress{
		RunID:      result.RunID,
		Phase:      result.Phase,
		TotalSteps: result.TotalSteps,
		StepsDone:  result.StepsDone,
		Messages:   len(result.Messages),
		Error:      result.Error,
	}
	for _, ch := range run.listeners {
		// Deliver the final state even to a full channel.
		select {
		case ch <- run.progress:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- run.progress
		}
		close(ch)
	}
	run.listeners = nil
	run.mu.Unlock()

	close(run.Done)
}
