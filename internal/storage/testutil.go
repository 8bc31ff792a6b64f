package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a fully configured in-memory SQLite database for testing.
//
// The database includes:
//   - Foreign key constraints enabled (required for cascade deletes)
//   - Full schema created (all tables, indexes, FTS)
//   - Automatic cleanup registered with t.Cleanup()
//
// This is the standard test database helper.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// SQLite disables foreign keys by default for backward compatibility
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	err = CreateSchema(db)
	require.NoError(t, err)

	return db
}

// NewTestDBFile creates a file-based SQLite database in t.TempDir() and
// returns its path. Use this to test persistence across connections and the
// writer/reader pair on a real file.
func NewTestDBFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "revet.db")
}

// NewTestDBMinimal creates an in-memory SQLite database without schema.
// Use this to test schema creation itself.
func NewTestDBMinimal(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	return db
}
