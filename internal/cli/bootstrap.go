package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relvet/revet/internal/scanner"
)

var bootstrapUpgrade bool

// bootstrapCmd represents the bootstrap command
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Provision the embedded Python runtime and bandit",
	Long: `Bootstrap extracts the embedded Python interpreter under ~/.revet/python
and installs bandit into its packages directory, so Python scanning works
on hosts with no Python install.

Only needed when scanner.use_embedded_python is set; with a system Python
and bandit on PATH the scan command works without any bootstrap.

Examples:
  # First-time setup
  revet bootstrap

  # Upgrade bandit in place
  revet bootstrap --upgrade
`,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().BoolVar(&bootstrapUpgrade, "upgrade", false, "upgrade bandit if already installed")
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling bootstrap...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "Extracting embedded Python runtime...")
	runtime, err := scanner.NewPythonRuntime()
	if err != nil {
		return fmt.Errorf("failed to extract embedded python: %w", err)
	}

	packagesDir := runtime.PackagesDir()
	if err := os.MkdirAll(packagesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create packages directory: %w", err)
	}

	pipArgs := []string{"-m", "pip", "install", "--target", packagesDir}
	if bootstrapUpgrade {
		pipArgs = append(pipArgs, "--upgrade")
	}
	pipArgs = append(pipArgs, "bandit")

	fmt.Fprintf(os.Stderr, "Installing bandit into %s...\n", packagesDir)
	install, err := runtime.Command(ctx, pipArgs...)
	if err != nil {
		return fmt.Errorf("failed to prepare pip: %w", err)
	}
	if !quietFlag {
		install.Stdout = os.Stderr
		install.Stderr = os.Stderr
	}
	if err := install.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("bootstrap cancelled")
		}
		return fmt.Errorf("failed to install bandit: %w", err)
	}

	// The packages directory did not exist when the first runtime was
	// built; a fresh one puts it on the module path.
	runtime, err = scanner.NewPythonRuntime()
	if err != nil {
		return fmt.Errorf("failed to reload embedded python: %w", err)
	}
	check, err := runtime.Command(ctx, "-m", "bandit", "--version")
	if err != nil {
		return fmt.Errorf("failed to prepare bandit check: %w", err)
	}
	out, err := check.Output()
	if err != nil {
		return fmt.Errorf("bandit did not install cleanly: %w", err)
	}

	version := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	fmt.Printf("✓ Embedded runtime ready: %s\n", version)
	return nil
}
