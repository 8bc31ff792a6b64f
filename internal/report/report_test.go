package report

// Test Plan for report rendering:
// 1. JSON carries the full finding objects plus a total
// 2. SARIF has valid tool metadata and severity-to-level mapping
// 3. Text output lists findings with severity markers and verdicts
// 4. ExitCode honors thresholds, severity overrides, and dismissed findings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relvet/revet/internal/scanner"
	"github.com/relvet/revet/internal/verify"
)

func reportFindings() []scanner.Finding {
	return []scanner.Finding{
		{
			ID:          "f-sql",
			Tool:        "bandit",
			RuleID:      "B608",
			Severity:    "MEDIUM",
			Description: "Possible SQL injection vector through string-based query construction",
			File:        "app/db.py",
			Line:        42,
			Verification: &verify.Result{
				Decision:   verify.DecisionTruePositive,
				Confidence: 0.92,
				Severity:   "critical",
			},
		},
		{
			ID:          "f-md5",
			Tool:        "bandit",
			RuleID:      "B303",
			Severity:    "MEDIUM",
			Description: "Use of insecure MD2, MD4, MD5, or SHA1 hash function",
			File:        "app/auth.py",
			Line:        17,
		},
		{
			ID:          "f-rand",
			Tool:        "gosec",
			RuleID:      "G404",
			Severity:    "LOW",
			Description: "Use of weak random number generator",
			File:        "pkg/token/token.go",
			Line:        9,
			Verification: &verify.Result{
				Decision:            verify.DecisionFalsePositive,
				Confidence:          0.88,
				FalsePositiveReason: "randomness is not security relevant here",
			},
		},
	}
}

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	out, err := Render(reportFindings(), FormatJSON, "1.0.0")
	require.NoError(t, err)

	var decoded struct {
		TotalFindings int               `json:"total_findings"`
		Findings      []scanner.Finding `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, 3, decoded.TotalFindings)
	require.Len(t, decoded.Findings, 3)
	assert.Equal(t, "B608", decoded.Findings[0].RuleID)
	require.NotNil(t, decoded.Findings[0].Verification)
	assert.Equal(t, verify.DecisionTruePositive, decoded.Findings[0].Verification.Decision)
}

func TestRender_JSONEmpty(t *testing.T) {
	t.Parallel()

	out, err := Render(nil, FormatJSON, "1.0.0")
	require.NoError(t, err)

	// Test: empty reports marshal findings as [], not null
	assert.Contains(t, out, `"findings": []`)
}

func TestRender_SARIF(t *testing.T) {
	t.Parallel()

	out, err := Render(reportFindings(), FormatSARIF, "1.2.3")
	require.NoError(t, err)

	var decoded sarifLog
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, "2.1.0", decoded.Version)
	assert.Contains(t, decoded.Schema, "sarif-schema-2.1.0")
	require.Len(t, decoded.Runs, 1)

	run := decoded.Runs[0]
	assert.Equal(t, "revet", run.Tool.Driver.Name)
	assert.Equal(t, "1.2.3", run.Tool.Driver.Version)
	require.Len(t, run.Results, 3)

	// Test: verification's severity override reaches the SARIF level
	assert.Equal(t, "B608", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Equal(t, "warning", run.Results[1].Level)
	assert.Equal(t, "note", run.Results[2].Level)

	loc := run.Results[0].Locations[0].PhysicalLocation
	assert.Equal(t, "app/db.py", loc.ArtifactLocation.URI)
	assert.Equal(t, 42, loc.Region.StartLine)
}

func TestRender_SARIFEmpty(t *testing.T) {
	t.Parallel()

	out, err := Render(nil, FormatSARIF, "1.0.0")
	require.NoError(t, err)

	var decoded sarifLog
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Runs, 1)
	assert.NotNil(t, decoded.Runs[0].Results)
	assert.Empty(t, decoded.Runs[0].Results)
}

func TestRender_Text(t *testing.T) {
	t.Parallel()

	out, err := Render(reportFindings(), FormatText, "1.0.0")
	require.NoError(t, err)

	assert.Contains(t, out, "Found 3 security issue(s)")
	assert.Contains(t, out, "[CRITICAL] B608 (bandit)")
	assert.Contains(t, out, "app/db.py:42")
	assert.Contains(t, out, "Verdict: true positive (0.92 confidence)")
	assert.Contains(t, out, "[MEDIUM] B303 (bandit)")
	assert.Contains(t, out, "Verdict: false positive (0.88 confidence)")
}

func TestRender_TextEmpty(t *testing.T) {
	t.Parallel()

	out, err := Render(nil, FormatText, "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "✓ No security issues found", out)
}

func TestRender_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := Render(nil, Format("yaml"), "1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	critical := scanner.Finding{Severity: "CRITICAL"}
	medium := scanner.Finding{Severity: "MEDIUM"}
	dismissed := scanner.Finding{
		Severity:     "CRITICAL",
		Verification: &verify.Result{Decision: verify.DecisionFalsePositive},
	}
	escalated := scanner.Finding{
		Severity:     "LOW",
		Verification: &verify.Result{Decision: verify.DecisionTruePositive, Severity: "critical"},
	}

	tests := []struct {
		name     string
		findings []scanner.Finding
		failOn   string
		want     int
	}{
		{"none never fails", []scanner.Finding{critical}, "none", 0},
		{"critical finding at critical gate", []scanner.Finding{critical}, "critical", 1},
		{"medium finding passes high gate", []scanner.Finding{medium}, "high", 0},
		{"medium finding fails medium gate", []scanner.Finding{medium}, "medium", 1},
		{"low gate catches everything ranked", []scanner.Finding{medium}, "low", 1},
		{"dismissed critical does not gate", []scanner.Finding{dismissed}, "critical", 0},
		{"verification override escalates", []scanner.Finding{escalated}, "critical", 1},
		{"unknown threshold gates at critical", []scanner.Finding{medium, critical}, "bogus", 1},
		{"no findings", nil, "low", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.findings, tt.failOn))
		})
	}
}
