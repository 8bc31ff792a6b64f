package storage

// Test Plan for Schema Creation:
// 1. Fresh database reports version "0" before any schema exists
// 2. CreateSchema builds every table, the FTS virtual table, and sync triggers
// 3. Schema version is bootstrapped to "1.0" and can be bumped via upsert
// 4. Foreign keys cascade: deleting a scan removes findings, verdicts, and
//    FTS rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	t.Parallel()

	db := NewTestDBMinimal(t)

	// Test: fresh database has no schema
	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, "0", version, "fresh database should report version 0")

	require.NoError(t, CreateSchema(db))

	// Test: all tables exist
	for _, table := range []string{"scans", "findings", "verdicts", "scan_metadata", "findings_fts"} {
		var count int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	// Test: FTS sync triggers exist
	for _, trigger := range []string{"findings_fts_insert", "findings_fts_update", "findings_fts_delete"} {
		var count int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='trigger' AND name=?", trigger,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "trigger %s should exist", trigger)
	}

	// Test: version bootstrapped
	version, err = GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, "1.0", version)
}

func TestUpdateSchemaVersion(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)

	require.NoError(t, UpdateSchemaVersion(db, "1.1"))

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, "1.1", version)

	// Test: upsert replaces rather than duplicating
	require.NoError(t, UpdateSchemaVersion(db, "1.2"))
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM scan_metadata WHERE key='schema_version'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCascadeDelete(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)

	_, err := db.Exec(
		"INSERT INTO scans (scan_id, root_path, started_at, status) VALUES ('s1', '/tmp/app', '2026-01-02T03:04:05Z', 'completed')",
	)
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO findings (finding_id, scan_id, tool, rule_id, severity, description, file_path, line_number, created_at)
		 VALUES ('f1', 's1', 'bandit', 'B608', 'HIGH', 'SQL injection', 'app/db.py', 4, '2026-01-02T03:04:06Z')`,
	)
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO verdicts (finding_id, decision, confidence, reasoning, model, verified_at)
		 VALUES ('f1', 'true_positive', 0.9, 'user input reaches query', 'openai/gpt-4o', '2026-01-02T03:04:07Z')`,
	)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM scans WHERE scan_id='s1'")
	require.NoError(t, err)

	// Test: findings and verdicts cascade away with their scan
	for _, q := range []string{
		"SELECT COUNT(*) FROM findings",
		"SELECT COUNT(*) FROM verdicts",
	} {
		var count int
		err = db.QueryRow(q).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "query %s should find nothing after cascade", q)
	}
}

func TestFTSTriggerSync(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t)

	_, err := db.Exec(
		"INSERT INTO scans (scan_id, root_path, started_at, status) VALUES ('s1', '/tmp/app', '2026-01-02T03:04:05Z', 'completed')",
	)
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO findings (finding_id, scan_id, tool, rule_id, severity, description, file_path, line_number, created_at)
		 VALUES ('f1', 's1', 'bandit', 'B608', 'HIGH', 'SQL injection through string formatting', 'app/db.py', 4, '2026-01-02T03:04:06Z')`,
	)
	require.NoError(t, err)

	// Test: insert trigger indexes the finding for FTS search
	var id string
	err = db.QueryRow("SELECT finding_id FROM findings_fts WHERE findings_fts MATCH 'injection'").Scan(&id)
	require.NoError(t, err)
	assert.Equal(t, "f1", id)

	// Test: update trigger reindexes changed text
	_, err = db.Exec("UPDATE findings SET description='hardcoded credentials in source' WHERE finding_id='f1'")
	require.NoError(t, err)
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM findings_fts WHERE findings_fts MATCH 'injection'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "old description should no longer match")
	err = db.QueryRow("SELECT COUNT(*) FROM findings_fts WHERE findings_fts MATCH 'credentials'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "new description should match")

	// Test: delete trigger drops the FTS row
	_, err = db.Exec("DELETE FROM findings WHERE finding_id='f1'")
	require.NoError(t, err)
	err = db.QueryRow("SELECT COUNT(*) FROM findings_fts WHERE finding_id='f1'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
