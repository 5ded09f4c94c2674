// Package testutil provides test database setup and catalog fixtures.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kberg/koireg/internal/infrastructure/sqlite"
)

// NewTestDB opens a migrated registry database in a per-test temp directory.
// It is closed automatically when the test ends.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTestStore opens a migrated store in a per-test temp directory.
func NewTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	return sqlite.NewStore(NewTestDB(t))
}
