package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresResults stores finished check runs in check_runs and their
// messages in check_messages.
type PostgresResults struct {
	pool *pgxpool.Pool
}

// NewPostgresResults creates a result store backed by pool.
func NewPostgresResults(pool *pgxpool.Pool) *PostgresResults {
	return &PostgresResults{pool: pool}
}

// runRow mirrors a check_runs row.
type runRow struct {
	RunID        string    `db:"run_id"`
	Phase        string    `db:"phase"`
	TotalSteps   int       `db:"total_steps"`
	StepsDone    int       `db:"steps_done"`
	MessageCount int       `db:"message_count"`
	StartedAt    time.Time `db:"started_at"`
	DurationMS   int64     `db:"duration_ms"`
	TriggeredBy  string    `db:"triggered_by"`
	Error        string    `db:"error"`
}

func (r runRow) summary() core.RunSummary {
	return core.RunSummary{
		RunID:        r.RunID,
		Phase:        core.RunPhase(r.Phase),
		TotalSteps:   r.TotalSteps,
		StepsDone:    r.StepsDone,
		MessageCount: r.MessageCount,
		StartedAt:    r.StartedAt,
		Duration:     time.Duration(r.DurationMS) * time.Millisecond,
		TriggeredBy:  r.TriggeredBy,
		Error:        r.Error,
	}
}

const runColumns = `run_id, phase, total_steps, steps_done, message_count, started_at, duration_ms, triggered_by, error`

const upsertRun = `
	INSERT INTO check_runs (` + runColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (run_id) DO UPDATE SET
		phase = EXCLUDED.phase,
		total_steps = EXCLUDED.total_steps,
		steps_done = EXCLUDED.steps_done,
		message_count = EXCLUDED.message_count,
		started_at = EXCLUDED.started_at,
		duration_ms = EXCLUDED.duration_ms,
		triggered_by = EXCLUDED.triggered_by,
		error = EXCLUDED.error`

// SaveResult writes the run and replaces its messages in one transaction.
// Messages are written with COPY.
func (s *PostgresResults) SaveResult(ctx context.Context, result *core.RunResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, upsertRun,
		result.RunID,
		string(result.Phase),
		result.TotalSteps,
		result.StepsDone,
		len(result.Messages),
		result.StartedAt,
		result.Duration.Milliseconds(),
		result.TriggeredBy,
		result.Error,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM check_messages WHERE run_id = $1`, result.RunID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	if len(result.Messages) > 0 {
		rows := make([][]any, len(result.Messages))
		for i, msg := range result.Messages {
			rows[i] = []any{result.RunID, i, msg}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"check_messages"},
			[]string{"run_id", "seq", "message"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy messages: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetResult returns a stored run with its messages in append order.
func (s *PostgresResults) GetResult(ctx context.Context, runID string) (*core.RunResult, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM check_runs WHERE run_id = $1`, runID)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[runRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err = s.pool.Query(ctx, `SELECT message FROM check_messages WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	messages, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	sum := row.summary()
	return &core.RunResult{
		RunID:       sum.RunID,
		Phase:       sum.Phase,
		TotalSteps:  sum.TotalSteps,
		StepsDone:   sum.StepsDone,
		Messages:    messages,
		StartedAt:   sum.StartedAt,
		Duration:    sum.Duration,
		TriggeredBy: sum.TriggeredBy,
		Error:       sum.Error,
	}, nil
}

// ListResults returns the most recent runs, newest first.
func (s *PostgresResults) ListResults(ctx context.Context, limit int) ([]core.RunSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM check_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[runRow])
	if err != nil {
		return nil, err
	}

	out := make([]core.RunSummary, len(items))
	for i, it := range items {
		out[i] = it.summary()
	}
	return out, nil
}

// PurgeResults deletes runs started before olderThan. Messages go with
// them through the foreign key cascade.
func (s *PostgresResults) PurgeResults(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM check_runs WHERE started_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
