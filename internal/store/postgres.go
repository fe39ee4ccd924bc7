// Package store holds the persistence side of the check service: the
// Postgres record source, the Postgres result store, embedded goose
// migrations, a Redis result cache and the dataset file source.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/refcheck/internal/config"
	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// connectAttempts is the number of pool connection attempts before giving up.
const connectAttempts = 3

// Connect opens a Postgres pool configured from cfg and pings it.
// Attempts back off linearly: one second, then two.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	var lastErr error
	for i := range connectAttempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		slog.Warn("database not ready", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * time.Second):
		}
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

// PostgresSource loads record collections from the kind tables.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a source reading from pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Load reads every registered kind inside one read-only repeatable-read
// transaction, so all kinds come from the same database snapshot.
// Kinds are added in registry order.
func (s *PostgresSource) Load(ctx context.Context) (*core.Collections, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only

	return LoadCollections(ctx, tx)
}

// LoadCollections runs each registered kind's loader against db.
// Kinds without a loader are skipped.
func LoadCollections(ctx context.Context, db core.DBTX) (*core.Collections, error) {
	records := core.NewCollections()

	for _, def := range core.All() {
		if def.Load == nil {
			continue
		}

		c, err := def.Load(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", def.Kind.Key(), err)
		}
		if err := records.Add(def.Kind, c); err != nil {
			return nil, err
		}
	}

	return records, nil
}
