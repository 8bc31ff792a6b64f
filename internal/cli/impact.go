package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/relvet/revet/internal/config"
	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/impact"
	"github.com/relvet/revet/internal/scanner"
	"github.com/relvet/revet/internal/storage"
	"github.com/relvet/revet/internal/verify"
)

var (
	impactScanID string
	impactFile   string
)

// impactCmd represents the impact command
var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Show which files depend on code with verified findings",
	Long: `Impact builds a reverse import graph of a scanned project and prints the
blast radius of each verified true positive: every file that imports the
vulnerable file, directly or through intermediaries, nearest first.

With --file, prints the dependents of that one file instead of walking
the scan's verdicts.

Examples:
  # Blast radius of the latest scan's verified findings
  revet impact

  # Who imports app/db.py?
  revet impact --file app/db.py
`,
	RunE: runImpact,
}

func init() {
	rootCmd.AddCommand(impactCmd)
	impactCmd.Flags().StringVar(&impactScanID, "scan", "", "scan ID to analyze (default: the latest scan)")
	impactCmd.Flags().StringVar(&impactFile, "file", "", "print dependents of this file instead of the scan's verdicts")
}

func runImpact(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	dbPath, err := cfg.Storage.ResolveDBPath()
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	reader, err := storage.NewReader(dbPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	var scanArgs []string
	if impactScanID != "" {
		scanArgs = []string{impactScanID}
	}
	scan, err := resolveScan(reader, scanArgs)
	if err != nil {
		return err
	}

	rootDir := scan.RootPath
	if info, err := os.Stat(rootDir); err != nil || !info.IsDir() {
		return fmt.Errorf("scanned directory no longer exists: %s", rootDir)
	}

	analyzer, err := buildAnalyzer(cfg, rootDir)
	if err != nil {
		return err
	}
	files, edges := analyzer.Stats()
	if !quietFlag {
		fmt.Fprintf(os.Stderr, "Import graph: %d files, %d edges\n", files, edges)
	}

	if impactFile != "" {
		printDependents(analyzer, relativeTo(rootDir, impactFile))
		return nil
	}

	findings, err := reader.FindingsByScan(scan.ID)
	if err != nil {
		return err
	}
	affected := truePositiveFiles(rootDir, findings)
	if len(affected) == 0 {
		fmt.Printf("Scan %s has no verified true positives\n", scan.ID)
		return nil
	}
	for _, file := range affected {
		printDependents(analyzer, file)
	}
	return nil
}

// buildAnalyzer discovers the project's files and builds its import graph.
func buildAnalyzer(cfg *config.Config, rootDir string) (*impact.Analyzer, error) {
	registry := scanner.NewRegistry()
	discovery, err := scanner.NewFileDiscovery(rootDir, nil, cfg.Scanner.Exclude, cfg.Scanner.MaxFileSizeMB)
	if err != nil {
		return nil, fmt.Errorf("failed to set up file discovery: %w", err)
	}
	filesByLanguage, err := discovery.DiscoverByLanguage(registry)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}

	resolver, err := codectx.NewResolver(nil, contextConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create context resolver: %w", err)
	}
	defer resolver.Close()

	analyzer, err := impact.Build(resolver, rootDir, filesByLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to build import graph: %w", err)
	}
	return analyzer, nil
}

// truePositiveFiles collects the files of verified true positives, relative
// to the scan root, deduplicated and sorted.
func truePositiveFiles(rootDir string, findings []scanner.Finding) []string {
	seen := make(map[string]bool)
	var files []string
	for i := range findings {
		f := &findings[i]
		if f.Verification == nil || f.Verification.Decision != verify.DecisionTruePositive {
			continue
		}
		rel := relativeTo(rootDir, f.File)
		if !seen[rel] {
			seen[rel] = true
			files = append(files, rel)
		}
	}
	sort.Strings(files)
	return files
}

// relativeTo rewrites an absolute tool-reported path relative to the scan
// root, which is how the import graph keys its files.
func relativeTo(rootDir, path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(rootDir, path)
	if err != nil {
		return path
	}
	return rel
}

func printDependents(analyzer *impact.Analyzer, file string) {
	if !analyzer.HasFile(file) {
		fmt.Printf("%s: not in the import graph\n", file)
		return
	}
	deps := analyzer.Dependents(file)
	if len(deps) == 0 {
		fmt.Printf("%s: no dependents\n", file)
		return
	}
	fmt.Printf("%s is imported by %d file(s):\n", file, len(deps))
	for _, d := range deps {
		fmt.Printf("  %s (depth %d)\n", d.File, d.Depth)
	}
}
