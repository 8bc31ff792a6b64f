package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relvet/revet/internal/config"
	"github.com/relvet/revet/internal/lang"
	"github.com/relvet/revet/internal/scanner"
)

// languagesCmd represents the languages command
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Long: `Languages lists every language the context extractor understands, the
file extensions that map to it, and the SAST tool that scans it, when one
is registered. Context extraction works for all listed languages;
scanning only for those with a tool.`,
	Run: runLanguages,
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, args []string) {
	registry := scanner.NewRegistry()
	tools := make(map[string]string)
	for _, language := range registry.Languages() {
		if sc, ok := registry.ScannerFor(language, config.ScannerConfig{}); ok {
			tools[language] = sc.Name()
		}
	}

	langs := lang.Default()
	fmt.Println("Supported languages:")
	for _, name := range langs.Names() {
		l, err := langs.Get(name)
		if err != nil {
			continue
		}
		tool := tools[name]
		if tool == "" {
			tool = "-"
		}
		fmt.Printf("  %-12s scanner: %-8s extensions: %s", name, tool, strings.Join(l.Extensions, " "))
		if len(l.Aliases) > 0 {
			fmt.Printf("  (aliases: %s)", strings.Join(l.Aliases, " "))
		}
		fmt.Println()
	}
}
