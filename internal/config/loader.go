package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ErrParsingConfig is returned when the environment cannot be parsed.
var ErrParsingConfig = errors.New("config: failed to parse environment")

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DB_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Redis validation
	if c.Redis.Enabled() {
		if c.Redis.RetryAttempts <= 0 {
			errs = append(errs, "REDIS_RETRY_ATTEMPTS must be positive")
		}
		if c.Redis.ResultTTL <= 0 {
			errs = append(errs, "REDIS_RESULT_TTL must be positive")
		}
	}

	// Check validation
	if c.Check.MaxConcurrent <= 0 {
		errs = append(errs, "CHECK_MAX_CONCURRENT must be positive")
	}
	if c.Check.MaxWait <= 0 {
		errs = append(errs, "CHECK_MAX_WAIT must be positive")
	}
	if c.Check.Timeout <= 0 {
		errs = append(errs, "CHECK_TIMEOUT must be positive")
	}
	if c.Check.ProgressEvery <= 0 {
		errs = append(errs, "CHECK_PROGRESS_EVERY must be positive")
	}
	if c.Check.ResultTTL <= 0 {
		errs = append(errs, "CHECK_RESULT_TTL must be positive")
	}
	if c.Check.ScheduleInterval < 0 {
		errs = append(errs, "CHECK_SCHEDULE_INTERVAL must be non-negative")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.StartLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_START must be positive when rate limiting is enabled")
	}

	// Retention validation
	if c.Retention.Days <= 0 {
		errs = append(errs, "RETENTION_DAYS must be positive")
	}
	if c.Retention.ListLimit <= 0 {
		errs = append(errs, "RETENTION_LIST_LIMIT must be positive")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Connection URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Redis: {Enabled: %v}, ", c.Redis.Enabled())
	fmt.Fprintf(&b, "Check: {MaxConcurrent: %d, Timeout: %s, Schedule: %s}, ",
		c.Check.MaxConcurrent, c.Check.Timeout, c.Check.ScheduleInterval)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
