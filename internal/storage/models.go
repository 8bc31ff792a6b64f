package storage

import (
	"errors"
	"time"
)

// Domain models that mirror SQL tables in schema.go.
// These are lightweight data transfer structs, NOT ORM models.
// Findings and verdicts reuse the scanner and verify types directly;
// only the scan envelope needs its own model.

// Scan status values stored in scans.status.
const (
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// ErrNotFound is returned by reader lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Scan represents one scan run over a directory tree.
// Maps to the scans table.
type Scan struct {
	ID         string    // scan_id: UUID
	RootPath   string    // root_path: scanned directory or file
	StartedAt  time.Time // started_at: when the scan began
	FinishedAt time.Time // finished_at: zero while the scan is running
	Status     string    // status: running, completed, failed
	Error      string    // error: failure detail for failed scans
}

// Finished reports whether the scan has a recorded end time.
func (s *Scan) Finished() bool {
	return !s.FinishedAt.IsZero()
}

// Duration returns how long the scan ran, or 0 while still running.
func (s *Scan) Duration() time.Duration {
	if !s.Finished() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
