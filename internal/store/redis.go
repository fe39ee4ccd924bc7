package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/refcheck/internal/config"
	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis connects to Redis and pings it, retrying up to
// cfg.RetryAttempts times within cfg.ConnectTimeout.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisURL, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// CachedResults is a read-through Redis cache in front of a ResultStore.
// Finished runs never change, so cached entries only expire by TTL.
type CachedResults struct {
	next   core.ResultStore
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCachedResults wraps next with a cache. Keys are "<prefix>:run:<id>".
func NewCachedResults(next core.ResultStore, client redis.UniversalClient, prefix string, ttl time.Duration) *CachedResults {
	return &CachedResults{next: next, client: client, prefix: prefix, ttl: ttl}
}

// RunKey returns the cache key of a run.
func (c *CachedResults) RunKey(runID string) string {
	return fmt.Sprintf("%s:run:%s", c.prefix, runID)
}

// SaveResult stores the run in the backing store, then caches it.
func (c *CachedResults) SaveResult(ctx context.Context, result *core.RunResult) error {
	if err := c.next.SaveResult(ctx, result); err != nil {
		return err
	}
	c.put(ctx, result)
	return nil
}

// GetResult serves the run from the cache, falling back to the backing
// store on a miss or a cache error.
func (c *CachedResults) GetResult(ctx context.Context, runID string) (*core.RunResult, error) {
	data, err := c.client.Get(ctx, c.RunKey(runID)).Bytes()
	switch {
	case err == nil:
		var result core.RunResult
		if err := json.Unmarshal(data, &result); err == nil {
			return &result, nil
		}
		slog.WarnContext(ctx, "discarding corrupt cached run", "run_id", runID)
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "result cache unavailable", "error", err)
	}

	result, err := c.next.GetResult(ctx, runID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, result)
	return result, nil
}

// ListResults reads through to the backing store.
func (c *CachedResults) ListResults(ctx context.Context, limit int) ([]core.RunSummary, error) {
	return c.next.ListResults(ctx, limit)
}

// PurgeResults purges the backing store. Cached copies of purged runs
// expire on their own.
func (c *CachedResults) PurgeResults(ctx context.Context, olderThan time.Time) (int64, error) {
	return c.next.PurgeResults(ctx, olderThan)
}

func (c *CachedResults) put(ctx context.Context, result *core.RunResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.RunKey(result.RunID), data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "failed to cache run", "run_id", result.RunID, "error", err)
	}
}
