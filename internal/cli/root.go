package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/relvet/revet/internal/config"
	codectx "github.com/relvet/revet/internal/context"
)

var (
	cfgFile   string
	quietFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "revet",
	Short: "Scan code with SAST tools and verify findings with an LLM",
	Long: `Revet runs security scanners over a codebase, extracts the semantic code
region around each finding with tree-sitter, and asks an LLM to judge
whether the alert is a true positive or tool noise.

Scan results persist to a local SQLite database (~/.revet/revet.db by
default) for later search, re-verification, and impact analysis.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .revet.yaml in the scanned directory)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress progress output")
}

// loadConfig loads configuration for commands that run from the working
// directory. An explicit --config wins; otherwise .revet.yaml is searched
// from the working directory upward, with REVET_* environment overrides.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.NewFileLoader(cfgFile).Load()
	}
	return config.LoadConfig()
}

// loadConfigFrom loads configuration anchored at the scanned directory, so a
// project's .revet.yaml applies no matter where revet is invoked from.
func loadConfigFrom(rootDir string) (*config.Config, error) {
	if cfgFile != "" {
		return config.NewFileLoader(cfgFile).Load()
	}
	return config.LoadConfigFromDir(rootDir)
}

// contextConfig maps the context config section onto the resolver's options.
func contextConfig(cfg *config.Config) codectx.Config {
	return codectx.Config{
		ContextLines: cfg.Context.ContextLines,
		CacheEntries: cfg.Context.CacheEntries,
		CacheTTL:     time.Duration(cfg.Context.CacheTTLSeconds) * time.Second,
	}
}
