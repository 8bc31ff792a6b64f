package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"time"

	"github.com/relvet/revet/internal/config"
)

// ESLintScanner runs eslint (via npx) over JavaScript sources.
type ESLintScanner struct {
	configPath string
	timeout    time.Duration
}

// NewESLintScanner builds the scanner from config.
func NewESLintScanner(cfg config.ScannerConfig) *ESLintScanner {
	return &ESLintScanner{
		configPath: cfg.Configs["eslint"],
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

func (s *ESLintScanner) Name() string     { return "eslint" }
func (s *ESLintScanner) Language() string { return "javascript" }

// Scan runs eslint over targetPath and normalizes its JSON report. ESLint
// exits 1 when rules fire; an empty or non-JSON stdout (no matching files)
// yields no findings.
func (s *ESLintScanner) Scan(ctx context.Context, targetPath string) ([]Finding, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := []string{"eslint", targetPath, "--format", "json"}
	if s.configPath != "" {
		args = append(args, "--config", s.configPath)
	}

	stdout, err := runTool(ctx, exec.CommandContext(ctx, "npx", args...))
	if err != nil {
		return nil, fmt.Errorf("running eslint: %w", err)
	}
	return parseESLintReport(stdout), nil
}

type eslintFileResult struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

type eslintMessage struct {
	RuleID   string `json:"ruleId"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Source   string `json:"source"`
}

func parseESLintReport(output []byte) []Finding {
	var results []eslintFileResult
	if err := json.Unmarshal(output, &results); err != nil {
		// Empty or non-JSON output is common when no files matched.
		if len(output) > 0 {
			log.Printf("Warning: failed to parse eslint output: %v", err)
		}
		return []Finding{}
	}

	findings := []Finding{}
	for _, fileResult := range results {
		for _, msg := range fileResult.Messages {
			// Messages without a rule are parse errors or stylistic noise.
			if msg.RuleID == "" {
				continue
			}
			findings = append(findings, Finding{
				Tool:        "eslint",
				RuleID:      msg.RuleID,
				Severity:    mapESLintSeverity(msg.Severity),
				Confidence:  ConfidenceHigh,
				Description: msg.Message,
				File:        fileResult.FilePath,
				Line:        msg.Line,
				Code:        msg.Source,
			})
		}
	}
	return findings
}

// mapESLintSeverity maps eslint's numeric severity (2 = error, 1 = warn).
func mapESLintSeverity(severity int) string {
	if severity == 2 {
		return SeverityHigh
	}
	return SeverityMedium
}
