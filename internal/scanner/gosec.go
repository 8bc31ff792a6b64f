package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/relvet/revet/internal/config"
)

// GosecScanner runs gosec over Go sources.
type GosecScanner struct {
	configPath string
	timeout    time.Duration
}

// NewGosecScanner builds the scanner from config.
func NewGosecScanner(cfg config.ScannerConfig) *GosecScanner {
	return &GosecScanner{
		configPath: cfg.Configs["gosec"],
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

func (s *GosecScanner) Name() string     { return "gosec" }
func (s *GosecScanner) Language() string { return "go" }

// Scan runs gosec over every package under targetPath and normalizes its
// JSON report.
func (s *GosecScanner) Scan(ctx context.Context, targetPath string) ([]Finding, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := []string{"-fmt=json"}
	if s.configPath != "" {
		args = append(args, "-conf", s.configPath)
	}
	args = append(args, targetPath+"/...")

	stdout, err := runTool(ctx, exec.CommandContext(ctx, "gosec", args...))
	if err != nil {
		return nil, fmt.Errorf("running gosec: %w", err)
	}
	if len(stdout) == 0 {
		return []Finding{}, nil
	}
	return parseGosecReport(stdout), nil
}

type gosecReport struct {
	Issues []gosecIssue `json:"Issues"`
}

type gosecIssue struct {
	Severity   string `json:"severity"`
	Confidence string `json:"confidence"`
	RuleID     string `json:"rule_id"`
	Details    string `json:"details"`
	File       string `json:"file"`
	Code       string `json:"code"`
	Line       string `json:"line"`
}

func parseGosecReport(output []byte) []Finding {
	var report gosecReport
	if err := json.Unmarshal(output, &report); err != nil {
		log.Printf("Warning: failed to parse gosec output: %v", err)
		return []Finding{}
	}

	findings := make([]Finding, 0, len(report.Issues))
	for _, issue := range report.Issues {
		severity := normalizeSeverity(issue.Severity)
		if severity == "" {
			severity = SeverityMedium
		}
		confidence := normalizeSeverity(issue.Confidence)
		if confidence == "" {
			confidence = ConfidenceHigh
		}
		findings = append(findings, Finding{
			Tool:        "gosec",
			RuleID:      issue.RuleID,
			Severity:    severity,
			Confidence:  confidence,
			Description: issue.Details,
			File:        issue.File,
			Line:        parseGosecLine(issue.Line),
			Code:        issue.Code,
		})
	}
	return findings
}

// parseGosecLine handles gosec's line field, which is a string and may be a
// range like "23-25"; the first line locates the finding.
func parseGosecLine(line string) int {
	if idx := strings.IndexByte(line, '-'); idx >= 0 {
		line = line[:idx]
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0
	}
	return n
}
