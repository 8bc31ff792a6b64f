package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relvet/revet/internal/config"
)

// Test Plan for the gosec adapter:
// - A real gosec JSON report maps onto the finding model
// - The line field is a string and may be a range like "23-25"
// - Missing severity or confidence falls back to sane defaults
// - Malformed output degrades to zero findings

const gosecFixture = `{
  "Golang errors": {},
  "Issues": [
    {
      "severity": "HIGH",
      "confidence": "HIGH",
      "cwe": {"id": "338", "url": "https://cwe.mitre.org/data/definitions/338.html"},
      "rule_id": "G404",
      "details": "Use of weak random number generator (math/rand instead of crypto/rand)",
      "file": "/repo/internal/token/token.go",
      "code": "23: \tn := rand.Intn(1000)\n24: \t_ = n",
      "line": "23-25",
      "column": "9"
    },
    {
      "severity": "MEDIUM",
      "confidence": "HIGH",
      "cwe": {"id": "22", "url": "https://cwe.mitre.org/data/definitions/22.html"},
      "rule_id": "G304",
      "details": "Potential file inclusion via variable",
      "file": "/repo/cmd/serve.go",
      "code": "41: \tdata, err := os.ReadFile(path)",
      "line": "41",
      "column": "15"
    }
  ],
  "Stats": {"files": 12, "lines": 1840, "found": 2}
}`

func TestParseGosecReport_Fixture(t *testing.T) {
	t.Parallel()

	findings := parseGosecReport([]byte(gosecFixture))
	require.Len(t, findings, 2)

	weakRand := findings[0]
	assert.Equal(t, "gosec", weakRand.Tool)
	assert.Equal(t, "G404", weakRand.RuleID)
	assert.Equal(t, SeverityHigh, weakRand.Severity)
	assert.Equal(t, ConfidenceHigh, weakRand.Confidence)
	assert.Contains(t, weakRand.Description, "weak random number generator")
	assert.Equal(t, "/repo/internal/token/token.go", weakRand.File)
	assert.Equal(t, 23, weakRand.Line, "a range resolves to its first line")

	inclusion := findings[1]
	assert.Equal(t, "G304", inclusion.RuleID)
	assert.Equal(t, 41, inclusion.Line)
}

func TestParseGosecReport_Defaults(t *testing.T) {
	t.Parallel()

	findings := parseGosecReport([]byte(`{"Issues": [{"rule_id": "G101", "file": "a.go", "line": "3"}]}`))
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityMedium, findings[0].Severity)
	assert.Equal(t, ConfidenceHigh, findings[0].Confidence)
}

func TestParseGosecReport_Malformed(t *testing.T) {
	t.Parallel()

	findings := parseGosecReport([]byte("gosec: no packages found"))
	require.NotNil(t, findings)
	assert.Empty(t, findings)
}

func TestParseGosecLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 42, parseGosecLine("42"))
	assert.Equal(t, 23, parseGosecLine("23-25"))
	assert.Equal(t, 7, parseGosecLine(" 7 "))
	assert.Equal(t, 0, parseGosecLine(""))
	assert.Equal(t, 0, parseGosecLine("n/a"))
}

func TestGosecScanner_Metadata(t *testing.T) {
	t.Parallel()

	s := NewGosecScanner(config.ScannerConfig{})
	assert.Equal(t, "gosec", s.Name())
	assert.Equal(t, "go", s.Language())
}
