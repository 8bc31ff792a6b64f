//go:build fts5 || sqlite_fts5

// Package storage relies on SQLite FTS5 for finding search.
// Build with -tags="fts5" or -tags="sqlite_fts5" so mattn/go-sqlite3
// compiles FTS5 support in.
// See: github.com/mattn/go-sqlite3/sqlite3_opt_fts5.go
package storage

import (
	_ "github.com/mattn/go-sqlite3"
)
