package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/refcheck/internal/config"
	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DATABASE_URL and migrates it. Tests using it
// are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, config.DatabaseConfig{URL: url, MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func TestPostgresResults_RoundTrip(t *testing.T) {
	pool := testPool(t)
	results := NewPostgresResults(pool)
	ctx := context.Background()

	runID := uuid.NewString()
	in := &core.RunResult{
		RunID:       runID,
		Phase:       core.PhaseComplete,
		TotalSteps:  3,
		StepsDone:   3,
		Messages:    []string{"Book: b0|b0 has an empty name", "Activator: a0|a0 has no model"},
		StartedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Duration:    42 * time.Millisecond,
		TriggeredBy: "test",
	}
	require.NoError(t, results.SaveResult(ctx, in))

	got, err := results.GetResult(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, in.Messages, got.Messages)
	assert.Equal(t, in.Duration, got.Duration)
	assert.True(t, in.StartedAt.Equal(got.StartedAt))

	// Saving again replaces the messages.
	in.Messages = in.Messages[:1]
	require.NoError(t, results.SaveResult(ctx, in))
	got, err = results.GetResult(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)

	list, err := results.ListResults(ctx, 100)
	require.NoError(t, err)
	found := false
	for _, s := range list {
		if s.RunID == runID {
			found = true
			assert.Equal(t, 1, s.MessageCount)
		}
	}
	assert.True(t, found)

	_, err = results.PurgeResults(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = results.GetResult(ctx, runID)
	assert.ErrorIs(t, err, core.ErrRunNotFound)
}

func TestPostgresSource_Load(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `TRUNCATE books, activators, potions, apparati`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO books (id, name, weight, model, icon) VALUES ('b0', '', -1, 'm.nif', 'i.tex'), ('b1', 'Valid', 1, 'm.nif', 'i.tex');
		INSERT INTO activators (id, name, state) VALUES ('a0', 'Lever', 0), ('a1', 'Gone', 3);
		INSERT INTO potions (id, name, model, icon, effects) VALUES ('p0', 'Cure', 'p.nif', 'p.tex', '[{"effect": 3, "duration": 10}]');`)
	require.NoError(t, err)

	records, err := NewPostgresSource(pool).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, records.Size(core.KindBook))
	assert.Equal(t, 2, records.Size(core.KindActivator))
	activators, ok := records.Container(core.KindActivator)
	require.True(t, ok)
	assert.True(t, activators.Entry(1).IsDeleted())

	stage := core.NewReferenceableCheckStage(records, nil)
	result := core.RunStages(ctx, []core.Stage{stage}, &core.MessageLog{}, core.RunOptions{})
	require.Equal(t, core.PhaseComplete, result.Phase, result.Error)
	assert.Equal(t, []string{
		"Book: b0|b0 has an empty name",
		"Book: b0|b0 has negative weight",
		"Activator: a0|a0 has no model",
	}, result.Messages)
}
