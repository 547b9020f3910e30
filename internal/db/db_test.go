package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForeignKeysEnabled(t *testing.T) {
	database := NewTestDB(t)

	var enabled int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)
	require.NoError(t, EnsureSchema(database))
}

func TestDSN(t *testing.T) {
	got := dsn("shop.sqlite3")
	assert.Contains(t, got, "shop.sqlite3?")
	assert.Contains(t, got, "_pragma=foreign_keys%281%29")
	assert.Contains(t, got, "_pragma=journal_mode%28WAL%29")

	mem := dsn(":memory:")
	assert.NotContains(t, mem, "journal_mode")
}
