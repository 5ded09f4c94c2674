package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/infrastructure/sqlite"
)

func TestNewDBCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "registry.db")

	db, err := sqlite.NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, path, db.Path())
}

func TestNewDBRunsMigrations(t *testing.T) {
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"sources", "content_items", "processing_records"} {
		var name string
		err := db.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestNewDBReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	db, err := sqlite.NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an already-migrated database must not fail on ErrNoChange.
	db, err = sqlite.NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
