package cli

// Test Plan for the scan progress reporter:
// 1. Quiet mode suppresses every phase and never builds a bar
// 2. OnVerifyProgress without OnVerifyStart tolerates the missing bar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanProgressReporter_Quiet(t *testing.T) {
	t.Parallel()

	p := NewScanProgressReporter(true)
	p.OnDiscoveryComplete(10, 2)
	p.OnScanStart("python", "bandit")
	p.OnScanComplete("python", 3)
	p.OnVerifyStart(3)
	p.OnVerifyProgress(2)
	p.OnVerifyComplete(1, 1, 0)
	p.OnComplete(3)

	assert.Nil(t, p.verifyBar, "quiet mode should never build a bar")
}

func TestScanProgressReporter_ProgressWithoutStart(t *testing.T) {
	t.Parallel()

	p := NewScanProgressReporter(false)
	p.OnVerifyProgress(5)
}
