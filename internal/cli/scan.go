package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relvet/revet/internal/config"
	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/enrich"
	"github.com/relvet/revet/internal/memory"
	"github.com/relvet/revet/internal/privacy"
	"github.com/relvet/revet/internal/report"
	"github.com/relvet/revet/internal/scanner"
	"github.com/relvet/revet/internal/storage"
	"github.com/relvet/revet/internal/verify"
)

var (
	scanPath        string
	scanLanguages   []string
	scanFormat      string
	scanOutput      string
	scanFailOn      string
	scanMaxFindings int
	scanVerify      bool
)

// verifyChunkSize balances concurrency against progress feedback: each chunk
// verifies concurrently, the bar advances between chunks.
const verifyChunkSize = 10

// memorySeedLimit caps how many prior verdicts seed the similar-finding
// memory. The most recent ones carry the useful judgment.
const memorySeedLimit = 200

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a directory for security findings",
	Long: `Scan runs the registered SAST tools (bandit, eslint, gosec) over a
directory, attaches the enclosing function or class to each finding via
tree-sitter, and stores the results in the scan database.

With --verify, each finding is also triaged by an LLM that judges whether
the alert is a true positive. Verification needs an API key in
OPENAI_API_KEY or ANTHROPIC_API_KEY, matching the configured provider.

The exit code is 0 unless a finding at or above the --fail-on severity
survives triage, which makes scan usable as a CI gate.

Examples:
  # Scan the current directory
  revet scan

  # Scan a service and fail CI on verified high findings
  revet scan --path ./services/api --verify --fail-on high

  # Emit SARIF for code scanning upload
  revet scan --format sarif --output results.sarif

  # Scan only Python, capped at 50 findings
  revet scan --language python --max-findings 50
`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanPath, "path", "p", ".", "directory to scan")
	scanCmd.Flags().StringSliceVarP(&scanLanguages, "language", "l", nil, "languages to scan (default: every language with files present)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "report format: text, json, or sarif")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to a file instead of stdout")
	scanCmd.Flags().StringVar(&scanFailOn, "fail-on", "critical", "fail at this severity: critical, high, medium, low, or none")
	scanCmd.Flags().IntVar(&scanMaxFindings, "max-findings", 0, "cap the number of findings processed (0 means no cap)")
	scanCmd.Flags().BoolVar(&scanVerify, "verify", false, "triage findings with the configured LLM")
}

func runScan(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling scan...")
		cancel()
	}()

	rootDir, err := filepath.Abs(scanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve scan path: %w", err)
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return fmt.Errorf("scan path does not exist: %s", rootDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan path is not a directory: %s", rootDir)
	}

	cfg, err := loadConfigFrom(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	findings, err := runPipeline(ctx, cfg, rootDir)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("scan cancelled")
		}
		return err
	}

	output, err := report.Render(findings, report.Format(scanFormat), Version)
	if err != nil {
		return err
	}
	if scanOutput != "" {
		if err := os.WriteFile(scanOutput, []byte(output+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if !quietFlag {
			fmt.Printf("Report written to %s\n", scanOutput)
		}
	} else {
		fmt.Println(output)
	}

	if report.ExitCode(findings, scanFailOn) != 0 {
		return fmt.Errorf("findings at or above the %s threshold", strings.ToLower(scanFailOn))
	}
	return nil
}

// runPipeline executes the scan stages: discover files, run the tools per
// language, extract context, redact, optionally verify, persist. Findings
// are returned in collection order; verdicts, when requested, are stored in
// the same transaction as the findings.
func runPipeline(ctx context.Context, cfg *config.Config, rootDir string) ([]scanner.Finding, error) {
	progress := NewScanProgressReporter(quietFlag)

	registry := scanner.NewRegistry()
	discovery, err := scanner.NewFileDiscovery(rootDir, nil, cfg.Scanner.Exclude, cfg.Scanner.MaxFileSizeMB)
	if err != nil {
		return nil, fmt.Errorf("failed to set up file discovery: %w", err)
	}
	filesByLanguage, err := discovery.DiscoverByLanguage(registry)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}

	languages, unsupported := selectLanguages(registry, filesByLanguage, scanLanguages)
	totalFiles := 0
	for _, files := range filesByLanguage {
		totalFiles += len(files)
	}
	progress.OnDiscoveryComplete(totalFiles, len(languages))

	resolver, err := codectx.NewResolver(nil, contextConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create context resolver: %w", err)
	}
	defer resolver.Close()
	enricher := enrich.NewEnricher(resolver, cfg.LLM.MaxConcurrent)
	sanitizer := privacy.NewSanitizer(cfg.Privacy)

	dbPath, err := cfg.Storage.ResolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	writer, err := storage.NewWriter(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan database: %w", err)
	}
	defer writer.Close()

	scan := &storage.Scan{RootPath: rootDir}
	if err := writer.InsertScan(scan); err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}

	findings, err := collectFindings(ctx, cfg, registry, rootDir, languages, unsupported, enricher, progress)
	if err != nil {
		failScan(writer, scan.ID, err)
		return nil, err
	}

	redactions := 0
	for i := range findings {
		redactions += len(sanitizer.SanitizeFinding(&findings[i]))
	}
	if redactions > 0 && !quietFlag {
		fmt.Fprintf(os.Stderr, "Redacted %d secret(s) and path(s)\n", redactions)
	}

	findings = capFindings(findings, scanMaxFindings)

	if scanVerify {
		if err := verifyFindings(ctx, cfg, dbPath, findings, progress); err != nil {
			failScan(writer, scan.ID, err)
			return nil, err
		}
	}

	if err := writer.WriteFindings(scan.ID, findings); err != nil {
		failScan(writer, scan.ID, err)
		return nil, fmt.Errorf("failed to store findings: %w", err)
	}
	if err := writer.FinishScan(scan.ID, storage.ScanStatusCompleted, ""); err != nil {
		return nil, fmt.Errorf("failed to finish scan: %w", err)
	}

	progress.OnComplete(len(findings))
	if !quietFlag {
		fmt.Fprintf(os.Stderr, "Scan ID: %s\n", scan.ID)
	}
	return findings, nil
}

// failScan marks the scan failed, keeping the original error as the one that
// matters.
func failScan(writer *storage.Writer, scanID string, cause error) {
	if err := writer.FinishScan(scanID, storage.ScanStatusFailed, cause.Error()); err != nil {
		log.Printf("Warning: failed to mark scan %s failed: %v", scanID, err)
	}
}

// collectFindings runs the scanner for each selected language over the scan
// root and enriches the results with extracted context. A tool that cannot
// run is a warning, not a scan failure; the other tools still report.
// Explicitly requested languages without a scanner become synthetic
// UNSUPPORTED_LANGUAGE findings so the report surfaces the gap.
func collectFindings(ctx context.Context, cfg *config.Config, registry *scanner.Registry, rootDir string, languages, unsupported []string, enricher *enrich.Enricher, progress *ScanProgressReporter) ([]scanner.Finding, error) {
	var findings []scanner.Finding
	for _, language := range languages {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sc, ok := registry.ScannerFor(language, cfg.Scanner)
		if !ok {
			continue
		}
		if !scannerEnabled(sc.Name(), cfg.Scanner.Enabled) {
			continue
		}

		progress.OnScanStart(language, sc.Name())
		langFindings, err := sc.Scan(ctx, rootDir)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Warning: %s could not run: %v", sc.Name(), err)
			continue
		}
		langFindings = enricher.Enrich(ctx, langFindings, language)
		progress.OnScanComplete(language, len(langFindings))
		findings = append(findings, langFindings...)
	}

	for _, language := range unsupported {
		findings = append(findings, scanner.UnsupportedFinding(language, rootDir))
	}
	return findings, nil
}

// selectLanguages decides which languages to scan. With no explicit request,
// every language with files present is scanned. Explicit requests run their
// tool regardless of discovery, since the tools walk the tree themselves;
// requests no scanner covers come back in unsupported.
func selectLanguages(registry *scanner.Registry, filesByLanguage map[string][]string, requested []string) (languages, unsupported []string) {
	if len(requested) == 0 {
		for language, files := range filesByLanguage {
			if len(files) > 0 {
				languages = append(languages, language)
			}
		}
		sort.Strings(languages)
		return languages, nil
	}

	supported := make(map[string]bool)
	for _, language := range registry.Languages() {
		supported[language] = true
	}

	seen := make(map[string]bool)
	for _, language := range requested {
		language = strings.ToLower(strings.TrimSpace(language))
		if language == "" || seen[language] {
			continue
		}
		seen[language] = true
		if supported[language] {
			languages = append(languages, language)
		} else {
			unsupported = append(unsupported, language)
		}
	}
	return languages, unsupported
}

// scannerEnabled reports whether a tool may run. An empty enabled list means
// every tool.
func scannerEnabled(name string, enabled []string) bool {
	if len(enabled) == 0 {
		return true
	}
	for _, e := range enabled {
		if strings.EqualFold(strings.TrimSpace(e), name) {
			return true
		}
	}
	return false
}

// capFindings truncates the finding list to max. Zero or negative means no
// cap.
func capFindings(findings []scanner.Finding, max int) []scanner.Finding {
	if max <= 0 || len(findings) <= max {
		return findings
	}
	log.Printf("Warning: capping findings at %d (%d dropped)", max, len(findings)-max)
	return findings[:max]
}

// verifyFindings triages findings with the configured LLM, attaching
// verdicts in place. When the similar-finding memory is enabled, verdicts
// from earlier scans on similar code are folded into each prompt.
func verifyFindings(ctx context.Context, cfg *config.Config, dbPath string, findings []scanner.Finding, progress *ScanProgressReporter) error {
	if len(findings) == 0 {
		return nil
	}

	provider, err := verify.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create verification provider: %w", err)
	}
	verifier, err := verify.NewVerifier(provider, cfg.LLM)
	if err != nil {
		provider.Close()
		return fmt.Errorf("failed to create verifier: %w", err)
	}
	defer verifier.Close()

	store := openMemory(ctx, cfg, dbPath)

	reqs := make([]verify.Request, len(findings))
	for i := range findings {
		reqs[i] = findings[i].VerifyRequest()
		if store != nil {
			reqs[i].PriorVerdicts = priorVerdicts(ctx, store, &findings[i], cfg.Memory.MaxResults)
		}
	}

	progress.OnVerifyStart(len(reqs))
	for start := 0; start < len(reqs); start += verifyChunkSize {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		end := start + verifyChunkSize
		if end > len(reqs) {
			end = len(reqs)
		}
		results := verifier.VerifyBatch(ctx, reqs[start:end])
		for i := range results {
			result := results[i]
			findings[start+i].Verification = &result
		}
		progress.OnVerifyProgress(end)
	}

	truePositives, falsePositives, uncertain := verdictCounts(findings)
	progress.OnVerifyComplete(truePositives, falsePositives, uncertain)
	return nil
}

// openMemory seeds the similar-finding memory from prior verdicts in the
// scan database. Memory is best-effort: any failure disables it with a
// warning instead of failing the scan.
func openMemory(ctx context.Context, cfg *config.Config, dbPath string) *memory.Store {
	if !cfg.Memory.Enabled {
		return nil
	}

	var prior []scanner.Finding
	reader, err := storage.NewReader(dbPath)
	if err == nil {
		prior, err = reader.VerifiedFindings(memorySeedLimit)
		reader.Close()
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("Warning: similar-finding memory disabled: %v", err)
		return nil
	}

	store, err := memory.NewStore(ctx, prior)
	if err != nil {
		log.Printf("Warning: similar-finding memory disabled: %v", err)
		return nil
	}
	return store
}

// priorVerdicts formats the closest prior verdicts for one finding. The
// finding's own stored verdict is skipped so re-verification cannot see it.
func priorVerdicts(ctx context.Context, store *memory.Store, f *scanner.Finding, k int) []string {
	entries, err := store.Similar(ctx, f, k)
	if err != nil {
		log.Printf("Warning: similarity lookup failed for %s:%d: %v", f.File, f.Line, err)
		return nil
	}

	var lines []string
	for _, e := range entries {
		if e.ID == f.ID {
			continue
		}
		lines = append(lines, e.Summary())
	}
	return lines
}

// verdictCounts tallies verification decisions across the findings.
func verdictCounts(findings []scanner.Finding) (truePositives, falsePositives, uncertain int) {
	for i := range findings {
		v := findings[i].Verification
		if v == nil {
			continue
		}
		switch v.Decision {
		case verify.DecisionTruePositive:
			truePositives++
		case verify.DecisionFalsePositive:
			falsePositives++
		default:
			uncertain++
		}
	}
	return truePositives, falsePositives, uncertain
}
