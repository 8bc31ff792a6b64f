package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relvet/revet/internal/storage"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [scan-id]",
	Short: "Re-verify the findings of a stored scan",
	Long: `Verify re-runs LLM triage over the findings of a stored scan and
replaces their verdicts. Without a scan ID the most recent scan is used.

Useful after switching providers or models, or when a scan ran without
--verify and the findings deserve a second look.

Examples:
  # Verify the latest scan
  revet verify

  # Verify a specific scan
  revet verify 6b1f0c42-9d3a-4f0e-8a57-2f3d9adbe941
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling verification...")
		cancel()
	}()

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

	scan, err := resolveScan(reader, args)
	if err != nil {
		return err
	}

	findings, err := reader.FindingsByScan(scan.ID)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		fmt.Printf("Scan %s has no findings to verify\n", scan.ID)
		return nil
	}

	progress := NewScanProgressReporter(quietFlag)
	if err := verifyFindings(ctx, cfg, dbPath, findings, progress); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("verification cancelled")
		}
		return err
	}

	writer, err := storage.NewWriter(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open scan database: %w", err)
	}
	defer writer.Close()

	stored := 0
	for i := range findings {
		if findings[i].Verification == nil {
			continue
		}
		if err := writer.WriteVerdict(findings[i].ID, findings[i].Verification); err != nil {
			return fmt.Errorf("failed to store verdict: %w", err)
		}
		stored++
	}

	fmt.Printf("✓ Stored %d verdict(s) for scan %s\n", stored, scan.ID)
	return nil
}

// resolveScan picks the scan named by the first argument, or the latest scan
// when no argument was given.
func resolveScan(reader *storage.Reader, args []string) (*storage.Scan, error) {
	if len(args) > 0 {
		return reader.GetScan(args[0])
	}
	return reader.LatestScan()
}
