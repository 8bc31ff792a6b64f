package memory

// Test Plan for Similar-Finding Memory:
// 1. Construction without an API key reports ErrDisabled
// 2. Only verified findings are remembered
// 3. Similar returns the closest prior verdict with its metadata
// 4. k larger than the memory clamps instead of erroring
// 5. Empty memory answers with no entries
// 6. Summary renders a one-line prior verdict, with the false-positive
//    reason when recorded

import (
	"context"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relvet/revet/internal/scanner"
	"github.com/relvet/revet/internal/verify"
)

// stubEmbedding buckets texts by keyword into orthogonal unit vectors, so
// similarity is exact within a bucket and zero across buckets.
func stubEmbedding(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "sql"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "random"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func verifiedFindings() []scanner.Finding {
	return []scanner.Finding{
		{
			ID:          "f-sql",
			Tool:        "bandit",
			RuleID:      "B608",
			Severity:    scanner.SeverityHigh,
			Description: "Possible SQL injection vector through string-based query construction.",
			File:        "app/db.py",
			Line:        14,
			Verification: &verify.Result{
				Decision:   verify.DecisionTruePositive,
				Confidence: 0.9,
				Reasoning:  "user input reaches the query",
			},
		},
		{
			ID:          "f-rand",
			Tool:        "gosec",
			RuleID:      "G404",
			Severity:    scanner.SeverityMedium,
			Description: "Use of weak random number generator",
			File:        "token.go",
			Line:        23,
			Verification: &verify.Result{
				Decision:            verify.DecisionFalsePositive,
				Confidence:          0.8,
				Reasoning:           "request IDs are not security sensitive",
				FalsePositiveReason: "non-cryptographic use",
			},
		},
		{
			ID:          "f-unverified",
			Tool:        "bandit",
			RuleID:      "B404",
			Severity:    scanner.SeverityLow,
			Description: "Consider possible security implications associated with the subprocess module.",
			File:        "app/runner.py",
			Line:        2,
		},
	}
}

func newTestStore(t *testing.T, findings []scanner.Finding) *Store {
	t.Helper()
	store, err := newStore(context.Background(), findings, chromem.EmbeddingFunc(stubEmbedding))
	require.NoError(t, err)
	return store
}

func TestNewStore_DisabledWithoutAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewStore(context.Background(), nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestStore_RemembersOnlyVerified(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, verifiedFindings())
	assert.Equal(t, 2, store.Count(), "the unverified finding should not be remembered")
}

func TestStore_Similar(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, verifiedFindings())

	// A fresh SQL injection finding should surface the prior SQL verdict
	fresh := &scanner.Finding{
		Tool:        "gosec",
		RuleID:      "G201",
		Severity:    scanner.SeverityHigh,
		Description: "SQL string formatting enables injection",
		File:        "store.go",
		Line:        40,
	}
	entries, err := store.Similar(context.Background(), fresh, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "f-sql", got.ID)
	assert.Equal(t, "bandit", got.Tool)
	assert.Equal(t, "B608", got.RuleID)
	assert.Equal(t, verify.DecisionTruePositive, got.Decision)
	assert.Equal(t, "app/db.py", got.File)
	assert.Contains(t, got.Content, "SQL injection")
	assert.InDelta(t, 1.0, float64(got.Similarity), 0.001)
}

func TestStore_Similar_ClampsK(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, verifiedFindings())

	fresh := &scanner.Finding{Description: "weak random token generation"}
	entries, err := store.Similar(context.Background(), fresh, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "k should clamp to the memory size")
	assert.Equal(t, "f-rand", entries[0].ID, "closest verdict should come first")
	assert.Equal(t, "non-cryptographic use", entries[0].Note)
}

func TestStore_Similar_EmptyMemory(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)

	fresh := &scanner.Finding{Description: "anything"}
	entries, err := store.Similar(context.Background(), fresh, 5)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestStore_AddReportsCount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)

	added, err := store.Add(context.Background(), verifiedFindings())
	require.NoError(t, err)
	assert.Equal(t, 2, added)
}

func TestEntry_Summary(t *testing.T) {
	t.Parallel()

	plain := Entry{Tool: "bandit", RuleID: "B608", Decision: verify.DecisionTruePositive, File: "app/db.py"}
	assert.Equal(t, "B608 (bandit) in app/db.py: true_positive", plain.Summary())

	noted := Entry{
		Tool: "gosec", RuleID: "G404", Decision: verify.DecisionFalsePositive,
		File: "token.go", Note: "non-cryptographic use",
	}
	assert.Equal(t, "G404 (gosec) in token.go: false_positive (non-cryptographic use)", noted.Summary())
}
