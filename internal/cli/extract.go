package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/lang"
)

var (
	extractFile     string
	extractLine     int
	extractLanguage string
	extractRadius   int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the code context around a file location",
	Long: `Extract prints the smallest meaningful code region around a line: the
enclosing function when one exists, the enclosing class otherwise, and a
plain line window when parsing cannot help. Output is JSON.

The language is inferred from the file extension; pass --language to
override it (aliases like "py" and "js" are accepted). Unknown languages
fall back to the line window rather than failing.

Examples:
  revet extract --file app/db.py --line 42
  revet extract --file src/handler.ts --line 10 --language typescript
  revet extract --file legacy.cfg --line 5 --context-lines 3
`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractFile, "file", "", "file to extract from (required)")
	extractCmd.Flags().IntVar(&extractLine, "line", 0, "1-indexed line number (required)")
	extractCmd.Flags().StringVar(&extractLanguage, "language", "", "language tag (default: inferred from the file extension)")
	extractCmd.Flags().IntVar(&extractRadius, "context-lines", 0, "fallback window radius (default from config)")
	extractCmd.MarkFlagRequired("file")
	extractCmd.MarkFlagRequired("line")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractLine < 1 {
		return fmt.Errorf("--line must be a positive 1-indexed line number")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	language := extractLanguage
	if language == "" {
		if l, ok := lang.Default().ForExtension(filepath.Ext(extractFile)); ok {
			language = l.Name
		}
	}

	resolver, err := codectx.NewResolver(nil, contextConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create context resolver: %w", err)
	}
	defer resolver.Close()

	var extracted *codectx.ExtractedContext
	if extractRadius > 0 {
		extracted = resolver.ExtractWithWindow(extractFile, extractLine, language, extractRadius)
	} else {
		extracted = resolver.Extract(extractFile, extractLine, language)
	}

	data, err := json.MarshalIndent(extracted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode context: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
