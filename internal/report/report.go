// Package report renders scan findings for people and build systems: pretty
// text for terminals, a JSON envelope for tooling, and SARIF 2.1.0 for code
// hosts. It also owns the --fail-on exit code policy.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relvet/revet/internal/scanner"
)

// Format selects an output renderer.
type Format string

const (
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
	FormatText  Format = "text"
)

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

// Render formats findings in the requested format. version names the revet
// release in SARIF tool metadata.
func Render(findings []scanner.Finding, format Format, version string) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(findings)
	case FormatSARIF:
		return renderSARIF(findings, version)
	case FormatText:
		return renderText(findings), nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

type jsonReport struct {
	TotalFindings int               `json:"total_findings"`
	Findings      []scanner.Finding `json:"findings"`
}

func renderJSON(findings []scanner.Finding) (string, error) {
	if findings == nil {
		findings = []scanner.Finding{}
	}
	data, err := json.MarshalIndent(jsonReport{
		TotalFindings: len(findings),
		Findings:      findings,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func renderSARIF(findings []scanner.Finding, version string) (string, error) {
	results := make([]sarifResult, 0, len(findings))
	for i := range findings {
		f := &findings[i]
		ruleID := f.RuleID
		if ruleID == "" {
			ruleID = "unknown"
		}
		line := f.Line
		if line < 1 {
			line = 1
		}
		results = append(results, sarifResult{
			RuleID:  ruleID,
			Level:   sarifLevel(f.EffectiveSeverity()),
			Message: sarifMessage{Text: f.Description},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: f.File},
					Region:           sarifRegion{StartLine: line},
				},
			}},
		})
	}

	data, err := json.MarshalIndent(sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "revet",
				Version:        version,
				InformationURI: "https://github.com/relvet/revet",
			}},
			Results: results,
		}},
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal SARIF: %w", err)
	}
	return string(data), nil
}

// sarifLevel maps severities onto the three SARIF levels.
func sarifLevel(severity string) string {
	switch severity {
	case scanner.SeverityCritical, scanner.SeverityHigh:
		return "error"
	case scanner.SeverityLow, scanner.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}

func renderText(findings []scanner.Finding) string {
	if len(findings) == 0 {
		return "✓ No security issues found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d security issue(s):\n\n", len(findings))

	for i := range findings {
		f := &findings[i]
		fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", i+1, f.EffectiveSeverity(), f.RuleID, f.Tool)
		fmt.Fprintf(&b, "   %s:%d\n", f.File, f.Line)
		fmt.Fprintf(&b, "   %s\n", f.Description)
		if f.Verification != nil {
			decision := strings.ReplaceAll(f.Verification.Decision, "_", " ")
			fmt.Fprintf(&b, "   Verdict: %s (%.2f confidence)\n", decision, f.Verification.Confidence)
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// ExitCode decides the process exit code for a finished scan. failOn is one
// of critical, high, medium, low, or none; anything unrecognized gates at
// critical. Findings that verification dismissed as false positives do not
// fail the build.
func ExitCode(findings []scanner.Finding, failOn string) int {
	if strings.EqualFold(failOn, "none") {
		return 0
	}

	threshold := scanner.SeverityRank(failOn)
	if threshold > scanner.SeverityRank(scanner.SeverityCritical) {
		threshold = scanner.SeverityRank(scanner.SeverityCritical)
	}

	for i := range findings {
		f := &findings[i]
		if f.VerifiedFalsePositive() {
			continue
		}
		if scanner.SeverityRank(f.EffectiveSeverity()) >= threshold {
			return 1
		}
	}
	return 0
}
