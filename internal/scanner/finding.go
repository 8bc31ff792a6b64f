// Package scanner runs external SAST tools over a source tree and normalizes
// their reports into Finding records. Each tool adapter shells out, parses
// the tool's JSON, and degrades to an empty result when the tool is missing
// or its output is unusable; a broken scanner never fails a scan.
package scanner

import (
	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/verify"
)

// Severity levels, ordered from most to least severe. CRITICAL is only
// assigned by verification; the tools themselves top out at HIGH.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
	SeverityInfo     = "INFO"
)

// Confidence levels reported by the tools.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// severityRank orders severities for threshold comparisons. Unknown
// severities rank highest so they are never silently waved through.
var severityRank = map[string]int{
	SeverityCritical: 5,
	SeverityHigh:     4,
	SeverityMedium:   3,
	SeverityLow:      2,
	SeverityInfo:     1,
}

// SeverityRank returns the numeric rank of a severity name, case-insensitive.
func SeverityRank(severity string) int {
	if rank, ok := severityRank[normalizeSeverity(severity)]; ok {
		return rank
	}
	return severityRank[SeverityCritical] + 1
}

// Finding is one issue reported by a SAST tool, later enriched with code
// context and a verification verdict. JSON field names are the wire shape
// shared with reports, storage, and the MCP surface.
type Finding struct {
	ID           string                    `json:"id,omitempty"`
	Tool         string                    `json:"tool"`
	RuleID       string                    `json:"rule_id"`
	Severity     string                    `json:"severity"`
	Confidence   string                    `json:"confidence,omitempty"`
	Description  string                    `json:"description"`
	File         string                    `json:"file"`
	Line         int                       `json:"line"`
	Code         string                    `json:"code,omitempty"`
	Context      *codectx.ExtractedContext `json:"context,omitempty"`
	Verification *verify.Result            `json:"verification,omitempty"`
}

// VerifiedFalsePositive reports whether verification confidently dismissed
// this finding.
func (f *Finding) VerifiedFalsePositive() bool {
	return f.Verification != nil && f.Verification.Decision == verify.DecisionFalsePositive
}

// EffectiveSeverity returns the verification's severity when it overrides the
// tool's, otherwise the tool's own.
func (f *Finding) EffectiveSeverity() string {
	if f.Verification != nil && f.Verification.Severity != "" {
		return normalizeSeverity(f.Verification.Severity)
	}
	return normalizeSeverity(f.Severity)
}

// VerifyRequest assembles the verification request for this finding. The
// extracted context region beats the tool's own snippet when available;
// findings whose extraction failed fall back to the snippet.
func (f *Finding) VerifyRequest() verify.Request {
	req := verify.Request{
		Tool:        f.Tool,
		RuleID:      f.RuleID,
		Severity:    f.Severity,
		Description: f.Description,
		CodeContext: f.Code,
		FilePath:    f.File,
		LineNumber:  f.Line,
	}
	if f.Context != nil && !f.Context.IsError() {
		if f.Context.ContextCode != "" {
			req.CodeContext = f.Context.ContextCode
		}
		req.FunctionName = f.Context.FunctionName
		req.ClassName = f.Context.ClassName
	}
	return req
}
