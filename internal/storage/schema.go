package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateSchema creates all tables, indexes, and the FTS virtual table for
// scan persistence. Core tables are created in one transaction; the FTS5
// virtual table and its sync triggers must be created outside it.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Enable foreign keys (must be set for each connection)
	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"scans", createScansTable},
		{"findings", createFindingsTable},
		{"verdicts", createVerdictsTable},
		{"scan_metadata", createScanMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	// FTS5 virtual tables and triggers live outside the transaction
	if _, err := db.Exec(createFindingsFTSTable); err != nil {
		return fmt.Errorf("failed to create findings_fts table: %w", err)
	}
	if err := createFTSTriggers(db); err != nil {
		return fmt.Errorf("failed to create FTS triggers: %w", err)
	}

	// Bootstrap scan_metadata in a separate transaction
	tx, err = db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin metadata transaction: %w", err)
	}
	defer tx.Rollback()
	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := `
		INSERT INTO scan_metadata (key, value, updated_at) VALUES
			('schema_version', '1.0', ?),
			('created_at', ?, ?)
	`
	if _, err := tx.Exec(bootstrapSQL, now, now, now); err != nil {
		return fmt.Errorf("failed to bootstrap scan_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion retrieves the schema version from scan_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='scan_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check scan_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil // New database
	}

	var version string
	err = db.QueryRow("SELECT value FROM scan_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in scan_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// UpdateSchemaVersion sets or updates the schema version in scan_metadata.
func UpdateSchemaVersion(db *sql.DB, version string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO scan_metadata (key, value, updated_at)
		VALUES ('schema_version', ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := db.Exec(query, version, now); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

// Table DDL constants

const createScansTable = `
CREATE TABLE scans (
    scan_id TEXT PRIMARY KEY,                    -- UUID
    root_path TEXT NOT NULL,                     -- Scanned directory or file
    started_at TEXT NOT NULL,                    -- ISO 8601
    finished_at TEXT,                            -- ISO 8601, NULL while running
    status TEXT NOT NULL,                        -- running, completed, failed
    error TEXT NOT NULL DEFAULT ''               -- Failure detail for failed scans
)
`

const createFindingsTable = `
CREATE TABLE findings (
    finding_id TEXT PRIMARY KEY,                 -- UUID
    scan_id TEXT NOT NULL,
    tool TEXT NOT NULL,                          -- bandit, eslint, gosec, scanner_registry
    rule_id TEXT NOT NULL,
    severity TEXT NOT NULL,
    confidence TEXT,                             -- Tool confidence, not verification confidence
    description TEXT NOT NULL,
    file_path TEXT NOT NULL,
    line_number INTEGER NOT NULL,
    code TEXT,                                   -- Tool-reported snippet
    context_kind TEXT,                           -- function, class, node, line_based_fallback
    context_start_line INTEGER,
    context_end_line INTEGER,
    context_code TEXT,
    function_name TEXT,
    class_name TEXT,
    imports TEXT,                                -- JSON array of import statements
    created_at TEXT NOT NULL,                    -- ISO 8601
    FOREIGN KEY (scan_id) REFERENCES scans(scan_id) ON DELETE CASCADE
)
`

const createVerdictsTable = `
CREATE TABLE verdicts (
    finding_id TEXT PRIMARY KEY,                 -- One verdict per finding
    decision TEXT NOT NULL,                      -- true_positive, false_positive, uncertain
    confidence REAL NOT NULL,                    -- 0.0 .. 1.0
    reasoning TEXT NOT NULL,
    severity TEXT,                               -- Model-adjusted severity, NULL if unchanged
    exploitability TEXT,
    remediation TEXT,
    false_positive_reason TEXT,
    cwe_ids TEXT,                                -- JSON array of CWE IDs
    model TEXT NOT NULL,                         -- provider/model that produced the verdict
    cached INTEGER NOT NULL DEFAULT 0,           -- Boolean: served from verdict cache
    verified_at TEXT NOT NULL,                   -- ISO 8601
    FOREIGN KEY (finding_id) REFERENCES findings(finding_id) ON DELETE CASCADE
)
`

const createScanMetadataTable = `
CREATE TABLE scan_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

const createFindingsFTSTable = `
CREATE VIRTUAL TABLE findings_fts USING fts5(
    finding_id UNINDEXED,                        -- FK to findings.finding_id (for joins)
    description,
    code,
    context_code,
    tokenize = "unicode61 separators '._'"       -- Tokenize on underscore and dot
)
`

// getAllIndexes returns all index creation statements.
func getAllIndexes() []string {
	return []string{
		// scans table indexes
		"CREATE INDEX idx_scans_started_at ON scans(started_at)",
		"CREATE INDEX idx_scans_status ON scans(status)",

		// findings table indexes
		"CREATE INDEX idx_findings_scan_id ON findings(scan_id)",
		"CREATE INDEX idx_findings_file_path ON findings(file_path)",
		"CREATE INDEX idx_findings_severity ON findings(severity)",
		"CREATE INDEX idx_findings_rule_id ON findings(rule_id)",
		"CREATE INDEX idx_findings_tool ON findings(tool)",

		// verdicts table indexes
		"CREATE INDEX idx_verdicts_decision ON verdicts(decision)",
	}
}

// createFTSTriggers creates triggers that keep findings_fts in sync with the
// findings table, so FTS search never needs manual reindexing.
func createFTSTriggers(db *sql.DB) error {
	triggers := []string{
		`CREATE TRIGGER findings_fts_insert AFTER INSERT ON findings
		BEGIN
			INSERT INTO findings_fts(finding_id, description, code, context_code)
			VALUES (NEW.finding_id, NEW.description, NEW.code, NEW.context_code);
		END`,

		`CREATE TRIGGER findings_fts_update AFTER UPDATE ON findings
		BEGIN
			DELETE FROM findings_fts WHERE finding_id = OLD.finding_id;
			INSERT INTO findings_fts(finding_id, description, code, context_code)
			VALUES (NEW.finding_id, NEW.description, NEW.code, NEW.context_code);
		END`,

		`CREATE TRIGGER findings_fts_delete AFTER DELETE ON findings
		BEGIN
			DELETE FROM findings_fts WHERE finding_id = OLD.finding_id;
		END`,
	}

	for i, trigger := range triggers {
		if _, err := db.Exec(trigger); err != nil {
			return fmt.Errorf("failed to create trigger %d: %w", i+1, err)
		}
	}

	return nil
}
