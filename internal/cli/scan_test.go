package cli

// Test Plan for the scan pipeline helpers:
// 1. selectLanguages scans every language with files present when nothing
//    is requested, sorted for stable tool order
// 2. Explicit language requests are normalized, deduplicated, and split
//    into supported and unsupported
// 3. scannerEnabled honors the enabled list case-insensitively, with an
//    empty list meaning every tool
// 4. capFindings truncates only past the cap
// 5. verdictCounts tallies decisions and skips unverified findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relvet/revet/internal/scanner"
	"github.com/relvet/revet/internal/verify"
)

func TestSelectLanguages_Discovered(t *testing.T) {
	t.Parallel()

	registry := scanner.NewRegistry()
	filesByLanguage := map[string][]string{
		"python":     {"app/db.py"},
		"go":         {"main.go"},
		"javascript": {},
	}

	languages, unsupported := selectLanguages(registry, filesByLanguage, nil)
	assert.Equal(t, []string{"go", "python"}, languages, "languages without files should not run their tool")
	assert.Empty(t, unsupported)
}

func TestSelectLanguages_Requested(t *testing.T) {
	t.Parallel()

	registry := scanner.NewRegistry()

	// Test: requests are normalized, deduplicated, and split by support
	languages, unsupported := selectLanguages(registry, nil, []string{"Python", " python ", "ruby", "go"})
	assert.Equal(t, []string{"python", "go"}, languages)
	assert.Equal(t, []string{"ruby"}, unsupported)
}

func TestScannerEnabled(t *testing.T) {
	t.Parallel()

	assert.True(t, scannerEnabled("bandit", nil), "empty list enables every tool")
	assert.True(t, scannerEnabled("bandit", []string{"Bandit", "gosec"}))
	assert.False(t, scannerEnabled("eslint", []string{"bandit", "gosec"}))
}

func TestCapFindings(t *testing.T) {
	t.Parallel()

	findings := []scanner.Finding{{RuleID: "a"}, {RuleID: "b"}, {RuleID: "c"}}

	assert.Len(t, capFindings(findings, 0), 3, "zero means no cap")
	assert.Len(t, capFindings(findings, 5), 3)

	capped := capFindings(findings, 2)
	require.Len(t, capped, 2)
	assert.Equal(t, "a", capped[0].RuleID, "the cap keeps the head of the list")
}

func TestVerdictCounts(t *testing.T) {
	t.Parallel()

	findings := []scanner.Finding{
		{Verification: &verify.Result{Decision: verify.DecisionTruePositive}},
		{Verification: &verify.Result{Decision: verify.DecisionTruePositive}},
		{Verification: &verify.Result{Decision: verify.DecisionFalsePositive}},
		{Verification: &verify.Result{Decision: verify.DecisionUncertain}},
		{},
	}

	truePositives, falsePositives, uncertain := verdictCounts(findings)
	assert.Equal(t, 2, truePositives)
	assert.Equal(t, 1, falsePositives)
	assert.Equal(t, 1, uncertain)
}
