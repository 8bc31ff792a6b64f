package scanner

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relvet/revet/internal/config"
)

// Scanner is the interface every tool adapter implements. Scan runs the tool
// over targetPath (a file or directory) and returns normalized findings.
// Adapters recover from tool and parse failures by returning an empty slice;
// an error means the tool could not run at all.
type Scanner interface {
	Name() string
	Language() string
	Scan(ctx context.Context, targetPath string) ([]Finding, error)
}

// Registry maps languages to scanner constructors and file extensions to
// languages. Lookups are case-insensitive.
type Registry struct {
	constructors map[string]func(cfg config.ScannerConfig) Scanner
	extensions   map[string]string
}

// NewRegistry returns a registry with the default scanners registered.
func NewRegistry() *Registry {
	r := &Registry{
		constructors: make(map[string]func(cfg config.ScannerConfig) Scanner),
		extensions:   make(map[string]string),
	}

	r.Register("python", []string{".py"}, func(cfg config.ScannerConfig) Scanner {
		return NewBanditScanner(cfg)
	})
	r.Register("javascript", []string{".js", ".jsx", ".mjs", ".cjs"}, func(cfg config.ScannerConfig) Scanner {
		return NewESLintScanner(cfg)
	})
	r.Register("go", []string{".go"}, func(cfg config.ScannerConfig) Scanner {
		return NewGosecScanner(cfg)
	})
	return r
}

// Register adds a scanner constructor for a language and its extensions.
func (r *Registry) Register(language string, extensions []string, constructor func(cfg config.ScannerConfig) Scanner) {
	language = strings.ToLower(language)
	r.constructors[language] = constructor
	for _, ext := range extensions {
		r.extensions[strings.ToLower(ext)] = language
	}
}

// ScannerFor returns a scanner instance for a language, or false when the
// language has none.
func (r *Registry) ScannerFor(language string, cfg config.ScannerConfig) (Scanner, bool) {
	constructor, ok := r.constructors[strings.ToLower(language)]
	if !ok {
		return nil, false
	}
	return constructor(cfg), true
}

// ForFile returns a scanner for the file's extension, or false when no
// scanner claims it.
func (r *Registry) ForFile(path string, cfg config.ScannerConfig) (Scanner, bool) {
	language, ok := r.extensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, false
	}
	return r.ScannerFor(language, cfg)
}

// LanguageForFile returns the language registered for the file's extension.
func (r *Registry) LanguageForFile(path string) (string, bool) {
	language, ok := r.extensions[strings.ToLower(filepath.Ext(path))]
	return language, ok
}

// Languages returns every language with a registered scanner, sorted.
func (r *Registry) Languages() []string {
	languages := make([]string, 0, len(r.constructors))
	for language := range r.constructors {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	return languages
}

// UnsupportedFinding is the synthetic record produced when a scan explicitly
// requests a language no scanner covers. It flows through the pipeline like
// any other finding so the report surfaces the gap.
func UnsupportedFinding(language, targetPath string) Finding {
	return Finding{
		Tool:        "scanner_registry",
		RuleID:      "UNSUPPORTED_LANGUAGE",
		Severity:    SeverityInfo,
		Description: "No scanner available for language: " + language,
		File:        targetPath,
		Line:        1,
	}
}

// runTool executes a tool subprocess and returns its stdout. SAST tools exit
// nonzero when they find issues, so exit codes are not treated as failures;
// stderr is surfaced as a warning and the output is parsed regardless. The
// returned error is reserved for tools that could not run at all.
func runTool(ctx context.Context, cmd *exec.Cmd) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stderr.Len() > 0 {
		log.Printf("Warning: %s stderr: %s", filepath.Base(cmd.Path), truncate(stderr.String(), 500))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Findings, not failure. The JSON on stdout decides.
			return stdout.Bytes(), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

func normalizeSeverity(severity string) string {
	return strings.ToUpper(strings.TrimSpace(severity))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
