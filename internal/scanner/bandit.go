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

// BanditScanner runs bandit over Python sources. It shells out to the system
// bandit by default; with use_embedded_python set it runs bandit as a module
// on the bundled interpreter instead, for hosts with no Python install.
type BanditScanner struct {
	configPath string
	timeout    time.Duration
	python     *PythonRuntime
}

// NewBanditScanner builds the scanner from config.
func NewBanditScanner(cfg config.ScannerConfig) *BanditScanner {
	s := &BanditScanner{
		configPath: cfg.Configs["bandit"],
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	if cfg.UseEmbeddedPython {
		runtime, err := NewPythonRuntime()
		if err != nil {
			log.Printf("Warning: embedded python unavailable, falling back to system bandit: %v", err)
		} else {
			s.python = runtime
		}
	}
	return s
}

func (s *BanditScanner) Name() string     { return "bandit" }
func (s *BanditScanner) Language() string { return "python" }

// Scan runs bandit recursively over targetPath and normalizes its JSON
// report. Bandit exits 1 when it finds issues; only a tool that cannot run
// returns an error.
func (s *BanditScanner) Scan(ctx context.Context, targetPath string) ([]Finding, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := []string{"-r", targetPath, "-f", "json"}
	if s.configPath != "" {
		args = append(args, "-c", s.configPath)
	}

	cmd, err := s.command(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("preparing bandit: %w", err)
	}
	stdout, err := runTool(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("running bandit: %w", err)
	}
	return parseBanditReport(stdout), nil
}

func (s *BanditScanner) command(ctx context.Context, args []string) (*exec.Cmd, error) {
	if s.python != nil {
		return s.python.Command(ctx, append([]string{"-m", "bandit"}, args...)...)
	}
	return exec.CommandContext(ctx, "bandit", args...), nil
}

type banditReport struct {
	Results []banditIssue `json:"results"`
}

type banditIssue struct {
	Filename        string `json:"filename"`
	IssueSeverity   string `json:"issue_severity"`
	IssueConfidence string `json:"issue_confidence"`
	IssueText       string `json:"issue_text"`
	LineNumber      int    `json:"line_number"`
	Code            string `json:"code"`
	TestID          string `json:"test_id"`
}

func parseBanditReport(output []byte) []Finding {
	var report banditReport
	if err := json.Unmarshal(output, &report); err != nil {
		log.Printf("Warning: failed to parse bandit output: %v", err)
		return []Finding{}
	}

	findings := make([]Finding, 0, len(report.Results))
	for _, issue := range report.Results {
		findings = append(findings, Finding{
			Tool:        "bandit",
			RuleID:      issue.TestID,
			Severity:    normalizeSeverity(issue.IssueSeverity),
			Confidence:  normalizeSeverity(issue.IssueConfidence),
			Description: issue.IssueText,
			File:        issue.Filename,
			Line:        issue.LineNumber,
			Code:        issue.Code,
		})
	}
	return findings
}
