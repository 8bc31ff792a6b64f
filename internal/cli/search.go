package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relvet/revet/internal/search"
	"github.com/relvet/revet/internal/storage"
)

var (
	searchScanID   string
	searchTool     string
	searchSeverity string
	searchDecision string
	searchFile     string
	searchLimit    int
	searchJSON     bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the findings of a stored scan",
	Long: `Search runs a keyword query over the findings of a stored scan, with
field filters for tool, severity, verdict decision, and file path. The
query matches descriptions, tool snippets, and extracted context; bleve
query syntax applies (quoted phrases, +required/-excluded terms,
wildcards). Without --scan the most recent scan is searched.

Examples:
  # Everything about SQL injection in the latest scan
  revet search "sql injection"

  # Unverified bandit findings in Python app code
  revet search md5 --tool bandit --decision unverified --file "app/*.py"

  # JSON for scripting
  revet search eval --json
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchScanID, "scan", "", "scan ID to search (default: the latest scan)")
	searchCmd.Flags().StringVar(&searchTool, "tool", "", "filter by scanner: bandit, eslint, or gosec")
	searchCmd.Flags().StringVar(&searchSeverity, "severity", "", "filter by effective severity")
	searchCmd.Flags().StringVar(&searchDecision, "decision", "", "filter by verdict: true_positive, false_positive, uncertain, or unverified")
	searchCmd.Flags().StringVar(&searchFile, "file", "", "filter by file path pattern, e.g. \"app/*.py\"")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

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

	scanID := searchScanID
	if scanID == "" {
		latest, err := reader.LatestScan()
		if err != nil {
			return err
		}
		scanID = latest.ID
	}
	findings, err := reader.FindingsByScan(scanID)
	if err != nil {
		return err
	}

	index, err := search.NewIndex(ctx, findings)
	if err != nil {
		return fmt.Errorf("failed to build search index: %w", err)
	}
	defer index.Close()

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}
	hits, err := index.Search(query, &search.Options{
		Tool:     searchTool,
		Severity: searchSeverity,
		Decision: searchDecision,
		FilePath: searchFile,
		Limit:    limit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(hits) == 0 {
		fmt.Printf("No findings match %q in scan %s\n", query, scanID)
		return nil
	}
	fmt.Printf("Found %d match(es) in scan %s:\n\n", len(hits), scanID)
	for i, hit := range hits {
		fmt.Printf("%d. [%s] %s (%s) %s:%d\n", i+1, hit.Severity, hit.RuleID, hit.Tool, hit.File, hit.Line)
		if hit.Decision != search.DecisionUnverified {
			fmt.Printf("   verdict: %s\n", hit.Decision)
		}
		fmt.Printf("   %s\n", firstLine(hit.Text))
	}
	return nil
}

// firstLine trims a hit's text blob down to its description line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
