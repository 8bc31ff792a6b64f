package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/scanner"
	"github.com/relvet/revet/internal/verify"
)

// defaultSearchLimit caps SearchFindings result sets when the caller passes
// no limit.
const defaultSearchLimit = 20

// Reader provides read-only access to stored scans and findings.
type Reader struct {
	db     *sql.DB
	ownsDB bool
}

// NewReader opens the scan database read-only.
func NewReader(dbPath string) (*Reader, error) {
	// SQLite opens lazily, so surface a missing database here instead of
	// on the first query.
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no scan database at %s (run a scan first): %w", dbPath, ErrNotFound)
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Reader{db: db, ownsDB: true}, nil
}

// NewReaderWithDB wraps an existing database connection. The caller keeps
// ownership of the connection; Close becomes a no-op for it.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db, ownsDB: false}
}

// Close closes the underlying database if this reader opened it.
func (r *Reader) Close() error {
	if !r.ownsDB {
		return nil
	}
	return r.db.Close()
}

// GetScan fetches one scan by ID. Returns ErrNotFound if no such scan.
func (r *Reader) GetScan(scanID string) (*Scan, error) {
	row := sq.Select(scanColumns...).
		From("scans").
		Where(sq.Eq{"scan_id": scanID}).
		RunWith(r.db).
		QueryRow()

	scan, err := scanScanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan %s: %w", scanID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan %s: %w", scanID, err)
	}
	return scan, nil
}

// LatestScan fetches the most recently started scan. Returns ErrNotFound on
// an empty database.
func (r *Reader) LatestScan() (*Scan, error) {
	row := sq.Select(scanColumns...).
		From("scans").
		OrderBy("started_at DESC").
		Limit(1).
		RunWith(r.db).
		QueryRow()

	scan, err := scanScanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no scans recorded: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest scan: %w", err)
	}
	return scan, nil
}

// FindingsByScan fetches all findings for a scan with their verdicts,
// ordered by file path then line number.
func (r *Reader) FindingsByScan(scanID string) ([]scanner.Finding, error) {
	rows, err := sq.Select(findingColumns...).
		From("findings f").
		LeftJoin("verdicts v ON v.finding_id = f.finding_id").
		Where(sq.Eq{"f.scan_id": scanID}).
		OrderBy("f.file_path", "f.line_number").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query findings for scan %s: %w", scanID, err)
	}
	defer rows.Close()

	return collectFindings(rows)
}

// VerifiedFindings fetches findings that carry a verdict, newest verdicts
// first, across all scans. It seeds the similar-finding memory; a
// nonpositive limit applies the default.
func (r *Reader) VerifiedFindings(limit int) ([]scanner.Finding, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	rows, err := sq.Select(findingColumns...).
		From("findings f").
		Join("verdicts v ON v.finding_id = f.finding_id").
		OrderBy("v.verified_at DESC").
		Limit(uint64(limit)).
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query verified findings: %w", err)
	}
	defer rows.Close()

	return collectFindings(rows)
}

// SearchFindings runs a full-text query over finding descriptions, code
// snippets, and extracted context, best match first. An empty scanID
// searches every scan; a nonpositive limit applies the default.
//
// Queries use FTS5 syntax: bare terms, quoted phrases, AND/OR/NOT.
func (r *Reader) SearchFindings(query string, scanID string, limit int) ([]scanner.Finding, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := sq.Select(findingColumns...).
		From("findings f").
		Join("findings_fts ON findings_fts.finding_id = f.finding_id").
		LeftJoin("verdicts v ON v.finding_id = f.finding_id").
		Where(sq.Expr("findings_fts MATCH ?", query)).
		OrderBy("findings_fts.rank").
		Limit(uint64(limit))
	if scanID != "" {
		q = q.Where(sq.Eq{"f.scan_id": scanID})
	}

	rows, err := q.RunWith(r.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to search findings for %q: %w", query, err)
	}
	defer rows.Close()

	return collectFindings(rows)
}

// scanColumns is the scans select list shared by scan lookups.
var scanColumns = []string{
	"scan_id", "root_path", "started_at", "finished_at", "status", "error",
}

// findingColumns is the findings+verdicts select list shared by
// FindingsByScan and SearchFindings. Order must match scanFindingRow.
var findingColumns = []string{
	"f.finding_id", "f.tool", "f.rule_id", "f.severity", "f.confidence",
	"f.description", "f.file_path", "f.line_number", "f.code",
	"f.context_kind", "f.context_start_line", "f.context_end_line",
	"f.context_code", "f.function_name", "f.class_name", "f.imports",
	"v.decision", "v.confidence", "v.reasoning", "v.severity",
	"v.exploitability", "v.remediation", "v.false_positive_reason",
	"v.cwe_ids", "v.model", "v.cached",
}

func scanScanRow(row sq.RowScanner) (*Scan, error) {
	var (
		scan       Scan
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&scan.ID, &scan.RootPath, &startedAt, &finishedAt, &scan.Status, &scan.Error); err != nil {
		return nil, err
	}

	var err error
	scan.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("bad started_at for scan %s: %w", scan.ID, err)
	}
	if finishedAt.Valid && finishedAt.String != "" {
		scan.FinishedAt, err = time.Parse(time.RFC3339, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad finished_at for scan %s: %w", scan.ID, err)
		}
	}
	return &scan, nil
}

func collectFindings(rows *sql.Rows) ([]scanner.Finding, error) {
	var findings []scanner.Finding
	for rows.Next() {
		finding, err := scanFindingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding row: %w", err)
		}
		findings = append(findings, *finding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate findings: %w", err)
	}
	return findings, nil
}

func scanFindingRow(rows *sql.Rows) (*scanner.Finding, error) {
	var (
		f          scanner.Finding
		confidence sql.NullString
		code       sql.NullString

		ctxKind      sql.NullString
		ctxStartLine sql.NullInt64
		ctxEndLine   sql.NullInt64
		ctxCode      sql.NullString
		functionName sql.NullString
		className    sql.NullString
		imports      sql.NullString

		decision       sql.NullString
		vConfidence    sql.NullFloat64
		reasoning      sql.NullString
		vSeverity      sql.NullString
		exploitability sql.NullString
		remediation    sql.NullString
		fpReason       sql.NullString
		cweIDs         sql.NullString
		model          sql.NullString
		cached         sql.NullInt64
	)

	err := rows.Scan(
		&f.ID, &f.Tool, &f.RuleID, &f.Severity, &confidence,
		&f.Description, &f.File, &f.Line, &code,
		&ctxKind, &ctxStartLine, &ctxEndLine,
		&ctxCode, &functionName, &className, &imports,
		&decision, &vConfidence, &reasoning, &vSeverity,
		&exploitability, &remediation, &fpReason,
		&cweIDs, &model, &cached,
	)
	if err != nil {
		return nil, err
	}

	f.Confidence = confidence.String
	f.Code = code.String

	if ctxKind.Valid && ctxKind.String != "" {
		f.Context = &codectx.ExtractedContext{
			File:             f.File,
			TargetLine:       f.Line,
			ContextKind:      ctxKind.String,
			ContextStartLine: int(ctxStartLine.Int64),
			ContextEndLine:   int(ctxEndLine.Int64),
			ContextCode:      ctxCode.String,
			FunctionName:     functionName.String,
			ClassName:        className.String,
			Imports:          decodeJSONStrings(imports, f.ID, "imports"),
		}
	}

	if decision.Valid {
		f.Verification = &verify.Result{
			Decision:            decision.String,
			Confidence:          vConfidence.Float64,
			Reasoning:           reasoning.String,
			Severity:            vSeverity.String,
			Exploitability:      exploitability.String,
			Remediation:         remediation.String,
			FalsePositiveReason: fpReason.String,
			CWEIDs:              decodeJSONStrings(cweIDs, f.ID, "cwe_ids"),
			Model:               model.String,
			Cached:              cached.Int64 != 0,
		}
	}

	return &f, nil
}

// decodeJSONStrings decodes a nullable JSON array column. Corrupt rows log a
// warning and read as empty rather than failing the whole query.
func decodeJSONStrings(col sql.NullString, findingID, column string) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		log.Printf("Warning: bad %s JSON for finding %s: %v", column, findingID, err)
		return nil
	}
	return out
}
