// Package config provides centralized configuration management for the check
// service. It parses environment variables with defaults and validates all
// settings on startup so a misconfigured service never starts.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Check     CheckConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Retention RetentionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout stays 0 so progress streams are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DB_URL is read when
	// DATABASE_URL is unset.
	URL string `env:"DATABASE_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" envDefault:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`

	// Migrate applies the embedded migrations at startup.
	Migrate bool `env:"DB_MIGRATE" envDefault:"true"`
}

// RedisConfig holds the result cache settings. An empty URL disables the cache.
type RedisConfig struct {
	URL            string        `env:"REDIS_URL"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
	ResultTTL      time.Duration `env:"REDIS_RESULT_TTL" envDefault:"1h"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"refcheck"`
}

// Enabled reports whether a Redis URL is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// CheckConfig holds check run settings.
type CheckConfig struct {
	// MaxConcurrent is the number of runs allowed at once (default: 2)
	MaxConcurrent int `env:"CHECK_MAX_CONCURRENT" envDefault:"2"`

	// MaxWait is how long StartRun waits for a free slot (default: 10s)
	MaxWait time.Duration `env:"CHECK_MAX_WAIT" envDefault:"10s"`

	// Timeout bounds a single run, loading included (default: 5m)
	Timeout time.Duration `env:"CHECK_TIMEOUT" envDefault:"5m"`

	// ProgressEvery is the step interval between progress updates (default: 100)
	ProgressEvery int `env:"CHECK_PROGRESS_EVERY" envDefault:"100"`

	// ResultTTL is how long finished runs stay in memory (default: 10m)
	ResultTTL time.Duration `env:"CHECK_RESULT_TTL" envDefault:"10m"`

	// ScheduleInterval runs a check periodically; 0 disables (default: 0)
	ScheduleInterval time.Duration `env:"CHECK_SCHEDULE_INTERVAL" envDefault:"0s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" envDefault:"100"`

	// StartLimit is requests per minute for the start-run endpoint
	StartLimit int `env:"RATE_LIMIT_START" envDefault:"10"`
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	// RequireAPIKey guards the run-starting and cancelling endpoints (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" envDefault:"false"`

	// APIKeys is a comma-separated list of accepted X-API-Key values
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// RetentionConfig holds stored run retention settings.
type RetentionConfig struct {
	// Days is how long stored runs are kept before the scheduler purges them
	Days int `env:"RETENTION_DAYS" envDefault:"30"`

	// ListLimit caps the number of runs returned by the history endpoint
	ListLimit int `env:"RETENTION_LIST_LIMIT" envDefault:"50"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
