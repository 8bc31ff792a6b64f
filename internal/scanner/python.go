package scanner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kluctl/go-embed-python/python"
)

// PythonRuntime wraps the embedded CPython used to run bandit on hosts with
// no system Python. The interpreter extracts once under ~/.revet/python and
// is reused across runs; the hash suffix keeps extractions version-safe.
// Bandit itself is provisioned into the packages directory by `revet
// bootstrap`.
type PythonRuntime struct {
	ep          *python.EmbeddedPython
	packagesDir string
}

// NewPythonRuntime extracts (or reuses) the embedded interpreter.
func NewPythonRuntime() (*PythonRuntime, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	revetDir := filepath.Join(home, ".revet", "python")

	ep, err := python.NewEmbeddedPythonWithTmpDir(filepath.Join(revetDir, "runtime"), true)
	if err != nil {
		return nil, fmt.Errorf("extracting embedded python: %w", err)
	}

	packagesDir := filepath.Join(revetDir, "packages")
	if _, err := os.Stat(packagesDir); err == nil {
		ep.AddPythonPath(packagesDir)
	}

	return &PythonRuntime{ep: ep, packagesDir: packagesDir}, nil
}

// PackagesDir returns the pip --target directory the runtime adds to its
// module path. The directory may not exist yet on a fresh install.
func (r *PythonRuntime) PackagesDir() string { return r.packagesDir }

// Command builds an interpreter invocation bound to ctx. PythonCmd itself
// carries the environment the extracted runtime needs; rebuilding through
// CommandContext keeps that environment while letting ctx kill the process.
func (r *PythonRuntime) Command(ctx context.Context, args ...string) (*exec.Cmd, error) {
	base, err := r.ep.PythonCmd(args...)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, base.Path, args...)
	cmd.Env = base.Env
	return cmd, nil
}
