package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relvet/revet/internal/scanner"
	"github.com/relvet/revet/internal/verify"
)

// Writer persists scans, findings, and verdicts to SQLite.
type Writer struct {
	db     *sql.DB
	dbPath string
	ownsDB bool
}

// NewWriter opens (or creates) the scan database at dbPath and ensures the
// schema exists. The parent directory is created if missing.
func NewWriter(dbPath string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys (per-connection setting in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}
	if version == "0" {
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Writer{db: db, dbPath: dbPath, ownsDB: true}, nil
}

// NewWriterWithDB wraps an existing database connection. The caller keeps
// ownership of the connection; Close becomes a no-op for it.
func NewWriterWithDB(db *sql.DB) *Writer {
	return &Writer{db: db, ownsDB: false}
}

// Close closes the underlying database if this writer opened it.
func (w *Writer) Close() error {
	if !w.ownsDB {
		return nil
	}
	return w.db.Close()
}

// DB exposes the underlying connection so a reader can share it.
func (w *Writer) DB() *sql.DB {
	return w.db
}

// InsertScan records the start of a scan. A missing ID is assigned a fresh
// UUID and a zero StartedAt is set to now; the scan starts in status running.
func (w *Writer) InsertScan(scan *Scan) error {
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	if scan.StartedAt.IsZero() {
		scan.StartedAt = time.Now().UTC()
	}
	if scan.Status == "" {
		scan.Status = ScanStatusRunning
	}

	_, err := sq.Insert("scans").
		Columns("scan_id", "root_path", "started_at", "finished_at", "status", "error").
		Values(
			scan.ID,
			scan.RootPath,
			scan.StartedAt.UTC().Format(time.RFC3339),
			nullableTime(scan.FinishedAt),
			scan.Status,
			scan.Error,
		).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert scan %s: %w", scan.ID, err)
	}
	return nil
}

// FinishScan marks a scan as completed or failed and stamps the end time.
func (w *Writer) FinishScan(scanID, status, scanErr string) error {
	result, err := sq.Update("scans").
		Set("finished_at", time.Now().UTC().Format(time.RFC3339)).
		Set("status", status).
		Set("error", scanErr).
		Where(sq.Eq{"scan_id": scanID}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to finish scan %s: %w", scanID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finish result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to finish scan %s: %w", scanID, ErrNotFound)
	}
	return nil
}

// WriteFindings inserts all findings for a scan in one transaction. Findings
// without an ID are assigned fresh UUIDs in place. Findings that already
// carry a verification verdict get their verdict row written in the same
// transaction, so a stored scan is always self-consistent.
func (w *Writer) WriteFindings(scanID string, findings []scanner.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range findings {
		f := &findings[i]
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if err := insertFinding(tx, scanID, f, now); err != nil {
			return err
		}
		if f.Verification != nil {
			if err := upsertVerdict(tx, f.ID, f.Verification, now); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit findings: %w", err)
	}
	return nil
}

// WriteVerdict records (or replaces) the verification verdict for a stored
// finding. Used by re-verification of an existing scan.
func (w *Writer) WriteVerdict(findingID string, result *verify.Result) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	if err := upsertVerdict(tx, findingID, result, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit verdict: %w", err)
	}
	return nil
}

func insertFinding(tx *sql.Tx, scanID string, f *scanner.Finding, now string) error {
	var (
		contextKind      interface{}
		contextStartLine interface{}
		contextEndLine   interface{}
		contextCode      interface{}
		functionName     interface{}
		className        interface{}
		imports          interface{}
	)

	// Failed extractions are stored without context columns; the finding
	// itself still persists with the tool-reported snippet.
	if f.Context != nil && !f.Context.IsError() {
		contextKind = f.Context.ContextKind
		contextStartLine = f.Context.ContextStartLine
		contextEndLine = f.Context.ContextEndLine
		contextCode = f.Context.ContextCode
		functionName = nullableString(f.Context.FunctionName)
		className = nullableString(f.Context.ClassName)
		if len(f.Context.Imports) > 0 {
			data, err := json.Marshal(f.Context.Imports)
			if err != nil {
				return fmt.Errorf("failed to encode imports for finding %s: %w", f.ID, err)
			}
			imports = string(data)
		}
	}

	_, err := sq.Insert("findings").
		Columns(
			"finding_id", "scan_id", "tool", "rule_id", "severity", "confidence",
			"description", "file_path", "line_number", "code",
			"context_kind", "context_start_line", "context_end_line", "context_code",
			"function_name", "class_name", "imports", "created_at",
		).
		Values(
			f.ID, scanID, f.Tool, f.RuleID, f.Severity, nullableString(f.Confidence),
			f.Description, f.File, f.Line, nullableString(f.Code),
			contextKind, contextStartLine, contextEndLine, contextCode,
			functionName, className, imports, now,
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert finding %s: %w", f.ID, err)
	}
	return nil
}

func upsertVerdict(tx *sql.Tx, findingID string, v *verify.Result, now string) error {
	var cweIDs interface{}
	if len(v.CWEIDs) > 0 {
		data, err := json.Marshal(v.CWEIDs)
		if err != nil {
			return fmt.Errorf("failed to encode CWE IDs for finding %s: %w", findingID, err)
		}
		cweIDs = string(data)
	}

	_, err := sq.Insert("verdicts").
		Columns(
			"finding_id", "decision", "confidence", "reasoning", "severity",
			"exploitability", "remediation", "false_positive_reason", "cwe_ids",
			"model", "cached", "verified_at",
		).
		Values(
			findingID, v.Decision, v.Confidence, v.Reasoning, nullableString(v.Severity),
			nullableString(v.Exploitability), nullableString(v.Remediation),
			nullableString(v.FalsePositiveReason), cweIDs,
			v.Model, boolToInt(v.Cached), now,
		).
		Suffix(`ON CONFLICT(finding_id) DO UPDATE SET
			decision = excluded.decision,
			confidence = excluded.confidence,
			reasoning = excluded.reasoning,
			severity = excluded.severity,
			exploitability = excluded.exploitability,
			remediation = excluded.remediation,
			false_positive_reason = excluded.false_positive_reason,
			cwe_ids = excluded.cwe_ids,
			model = excluded.model,
			cached = excluded.cached,
			verified_at = excluded.verified_at`).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write verdict for finding %s: %w", findingID, err)
	}
	return nil
}

// nullableString converts empty strings to nil for nullable columns.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullableTime converts zero times to nil, otherwise RFC 3339 text.
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
