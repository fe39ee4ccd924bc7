package core

// scheduler.go runs maintenance in the background.
//
// On every tick it starts a check run over the current records and purges
// stored runs older than the retention window. Failures are logged and do
// not stop the scheduler.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ScheduleConfig holds configuration for the scheduler.
type ScheduleConfig struct {
	Interval      time.Duration // How often to run; 0 disables the scheduler
	RetentionDays int           // Days to keep stored runs (default: 30)
}

// StartScheduler runs a check and a purge immediately, then every Interval,
// until ctx is cancelled. It returns at once when Interval is zero.
func (s *Service) StartScheduler(ctx context.Context, cfg ScheduleConfig) {
	if cfg.Interval <= 0 {
		slog.Info("check scheduler disabled")
		return
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}

	slog.Info("check scheduler started",
		"interval", cfg.Interval.String(),
		"retention_days", cfg.RetentionDays,
	)

	s.runScheduledJob(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("check scheduler stopped")
			return
		case <-ticker.C:
			s.runScheduledJob(ctx, cfg)
		}
	}
}

// runScheduledJob performs one check + purge cycle.
func (s *Service) runScheduledJob(ctx context.Context, cfg ScheduleConfig) {
	start := time.Now()

	result, err := s.RunNow(ContextWithTrigger(ctx, "scheduler"))
	switch {
	case errors.Is(err, ErrTooManyRuns):
		slog.Warn("scheduled check skipped, runs busy")
	case err != nil:
		slog.Error("scheduled check failed", "error", err)
	default:
		slog.Info("scheduled check finished",
			"run_id", result.RunID,
			"phase", result.Phase,
			"messages", len(result.Messages),
		)
	}

	if s.results != nil {
		cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
		purged, err := s.results.PurgeResults(ctx, cutoff)
		if err != nil {
			slog.Error("purge failed", "error", err)
		} else {
			slog.Info("purged stored check runs", "runs_purged", purged)
		}
	}

	slog.Debug("scheduled job completed", "duration_ms", time.Since(start).Milliseconds())
}
