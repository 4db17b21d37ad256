package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MigratesAndIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bingo.db")

	db, err := Open(path, zerolog.Nop())
	require.NoError(t, err)

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"players", "fetch_runs", "stats", "skilling", "bossing", "clues", "activities"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
	require.NoError(t, db.Close())

	db, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	version, err = SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}
