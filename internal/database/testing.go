package database

import (
	"path/filepath"
	"testing"

	"github.com/mrlokans/sharedreader/internal/config"
)

// NewTestDatabase opens a migrated sqlite database in a per-test temp dir.
// File backed so that dedicated connections see the same data.
func NewTestDatabase(t testing.TB) *Database {
	t.Helper()

	db, err := NewDatabase(config.Database{
		Driver:   config.DatabaseDriverSQLite,
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
