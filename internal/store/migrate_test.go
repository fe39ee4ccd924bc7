package store

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		data, err := fs.ReadFile(migrations, name)
		require.NoError(t, err)

		sql := string(data)
		assert.True(t, strings.HasPrefix(sql, "-- +goose Up"), "%s must start with a goose Up annotation", name)
		assert.Contains(t, sql, "-- +goose Down", name)
	}
}

func TestMigrations_CreateKindTables(t *testing.T) {
	data, err := fs.ReadFile(migrations, "migrations/00001_records.sql")
	require.NoError(t, err)

	for _, table := range []string{"books", "activators", "potions", "apparati"} {
		assert.Contains(t, string(data), "CREATE TABLE "+table+" (", table)
	}
}
