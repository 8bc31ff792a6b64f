package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information - typically set via ldflags at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of revet",
	Long:  `All software has versions. This is revet's.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("revet %s\n", Version)
		fmt.Printf("Git commit: %s\n", GitCommit)
		fmt.Printf("Build date: %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
