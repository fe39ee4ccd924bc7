package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/refcheck/internal/config"
	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore is an in-memory ResultStore that counts reads.
type countingStore struct {
	mu      sync.Mutex
	results map[string]*core.RunResult
	gets    int
}

func (s *countingStore) SaveResult(_ context.Context, r *core.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		s.results = make(map[string]*core.RunResult)
	}
	s.results[r.RunID] = r
	return nil
}

func (s *countingStore) GetResult(_ context.Context, id string) (*core.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	r, ok := s.results[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return r, nil
}

func (s *countingStore) ListResults(context.Context, int) ([]core.RunSummary, error) {
	return nil, nil
}

func (s *countingStore) PurgeResults(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newCache(t *testing.T) (*CachedResults, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingStore{}
	return NewCachedResults(backing, client, "test", time.Minute), backing, mr
}

func sampleResult() *core.RunResult {
	return &core.RunResult{
		RunID:     "run-1",
		Phase:     core.PhaseComplete,
		Messages:  []string{"Book: b1|b1 has no icon"},
		StartedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}
}

func TestCachedResults_SaveWritesThrough(t *testing.T) {
	cache, backing, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SaveResult(ctx, sampleResult()))

	assert.True(t, mr.Exists("test:run:run-1"))
	assert.Equal(t, time.Minute, mr.TTL("test:run:run-1"))
	assert.Contains(t, backing.results, "run-1")

	got, err := cache.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, sampleResult().Messages, got.Messages)
	assert.Equal(t, sampleResult().Duration, got.Duration)
	assert.Zero(t, backing.gets, "cache hit must not reach the backing store")
}

func TestCachedResults_MissFillsCache(t *testing.T) {
	cache, backing, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, backing.SaveResult(ctx, sampleResult()))

	_, err := cache.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.gets)
	assert.True(t, mr.Exists(cache.RunKey("run-1")))

	_, err = cache.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.gets)
}

func TestCachedResults_NotFound(t *testing.T) {
	cache, _, mr := newCache(t)

	_, err := cache.GetResult(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.False(t, mr.Exists(cache.RunKey("missing")))
}

func TestCachedResults_CorruptEntryFallsBack(t *testing.T) {
	cache, backing, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, backing.SaveResult(ctx, sampleResult()))
	require.NoError(t, mr.Set(cache.RunKey("run-1"), "{not json"))

	got, err := cache.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 1, backing.gets)
}

func TestCachedResults_RedisDownFallsBack(t *testing.T) {
	cache, backing, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, backing.SaveResult(ctx, sampleResult()))
	mr.Close()

	got, err := cache.GetResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), config.RedisConfig{
		URL:            "redis://" + mr.Addr() + "/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestConnectRedis_BadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), config.RedisConfig{
		URL:            "mysql://nope",
		RetryAttempts:  1,
		ConnectTimeout: time.Second,
	})
	assert.True(t, errors.Is(err, ErrFailedToParseRedisURL))
}
