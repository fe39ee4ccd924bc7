package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DecodeFunc builds a container from a dataset section. decode unmarshals
// the section into v (yaml.Node.Decode, json.Unmarshal and similar fit).
type DecodeFunc func(decode func(v any) error) (Container, error)

// LoadFunc reads every record of one kind from the database.
type LoadFunc func(ctx context.Context, db DBTX) (Container, error)

// KindDefinition contains everything needed to check one record kind.
type KindDefinition struct {
	Kind     Kind
	Label    string       // Display name, defaults to Kind.String()
	Validate ValidateFunc // Checklist for the kind (required)
	Decode   DecodeFunc   // Dataset file support (optional)
	Load     LoadFunc     // Postgres support (optional)
}

// KindInfo is the public description of a registered kind.
type KindInfo struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Info returns the public description of the definition.
func (d KindDefinition) Info() KindInfo {
	return KindInfo{Key: d.Kind.Key(), Name: d.Kind.String(), Label: d.Label}
}

// RunPhase indicates the current state of a check run.
type RunPhase string

const (
	PhaseStarting  RunPhase = "starting"
	PhaseLoading   RunPhase = "loading"
	PhaseChecking  RunPhase = "checking"
	PhaseComplete  RunPhase = "complete"
	PhaseFailed    RunPhase = "failed"
	PhaseCancelled RunPhase = "cancelled"
)

// Done reports whether the phase is terminal.
func (p RunPhase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// RunProgress represents the current state of a check run.
type RunProgress struct {
	RunID      string   `json:"runId"`
	Phase      RunPhase `json:"phase"`
	Stage      string   `json:"stage,omitempty"`
	TotalSteps int      `json:"totalSteps"`
	StepsDone  int      `json:"stepsDone"`
	Messages   int      `json:"messages"`
	Error      string   `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// Percent returns the progress as a percentage (0-100).
func (p RunProgress) Percent() int {
	if p.TotalSteps > 0 {
		return (p.StepsDone * 100) / p.TotalSteps
	}
	if p.Phase == PhaseComplete {
		return 100
	}
	return 0
}

// RunResult contains the final result of a check run.
type RunResult struct {
	RunID       string        `json:"runId"`
	Phase       RunPhase      `json:"phase"`
	TotalSteps  int           `json:"totalSteps"`
	StepsDone   int           `json:"stepsDone"`
	Messages    []string      `json:"messages"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
	TriggeredBy string        `json:"triggeredBy,omitempty"`
	Error       string        `json:"error,omitempty"` // Non-empty if the run failed
}

// RunSummary is a stored run without its messages.
type RunSummary struct {
	RunID        string        `json:"runId"`
	Phase        RunPhase      `json:"phase"`
	TotalSteps   int           `json:"totalSteps"`
	StepsDone    int           `json:"stepsDone"`
	MessageCount int           `json:"messageCount"`
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
	TriggeredBy  string        `json:"triggeredBy,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// ProgressCallback is called periodically during a run.
type ProgressCallback func(RunProgress)

// Source loads the record collections a run checks.
type Source interface {
	Load(ctx context.Context) (*Collections, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Collections, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (*Collections, error) {
	return f(ctx)
}

// ResultStore persists finished runs.
type ResultStore interface {
	SaveResult(ctx context.Context, result *RunResult) error
	GetResult(ctx context.Context, runID string) (*RunResult, error)
	ListResults(ctx context.Context, limit int) ([]RunSummary, error)
	PurgeResults(ctx context.Context, olderThan time.Time) (int64, error)
}
