package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/refcheck/internal/config"
	"github.com/JonMunkholm/refcheck/internal/core"
	_ "github.com/JonMunkholm/refcheck/internal/core/kinds" // Register all kinds
	"github.com/JonMunkholm/refcheck/internal/logging"
	"github.com/JonMunkholm/refcheck/internal/store"
	"github.com/JonMunkholm/refcheck/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"check_max_concurrent", cfg.Check.MaxConcurrent,
		"schedule_interval", cfg.Check.ScheduleInterval.String(),
		"redis_enabled", cfg.Redis.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx, pool); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	var results core.ResultStore = store.NewPostgresResults(pool)
	if cfg.Redis.Enabled() {
		client, err := store.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		results = store.NewCachedResults(results, client, cfg.Redis.KeyPrefix, cfg.Redis.ResultTTL)
		slog.Info("result cache enabled", "ttl", cfg.Redis.ResultTTL.String())
	}

	service := core.NewService(store.NewPostgresSource(pool), results, core.ServiceConfig{
		MaxConcurrent: cfg.Check.MaxConcurrent,
		MaxWait:       cfg.Check.MaxWait,
		Timeout:       cfg.Check.Timeout,
		ProgressEvery: cfg.Check.ProgressEvery,
		ResultTTL:     cfg.Check.ResultTTL,
	})

	slog.Info("kinds registered", "count", core.KindCount())
	for _, def := range core.All() {
		slog.Debug("kind", "key", def.Kind.Key(), "label", def.Label)
	}

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartScheduler(jobCtx, core.ScheduleConfig{
		Interval:      cfg.Check.ScheduleInterval,
		RetentionDays: cfg.Retention.Days,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run returns once in-flight requests have drained.
	err = server.Run(ctx, func(shutdownCtx context.Context) {
		cancelJobs()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for check runs to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				slog.Warn("check runs did not complete in time", "error", err)
			} else {
				slog.Info("all check runs completed")
			}
		}
	})
	if err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
