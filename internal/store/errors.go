package store

import "errors"

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")

	ErrFailedToParseRedisURL = errors.New("failed to parse redis connection string")
	ErrRedisNotReady         = errors.New("redis did not become ready within the given time period")
)
