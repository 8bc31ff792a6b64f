package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ScanProgressReporter prints scan phase progress: plain lines for the tool
// runs, which have no per-file granularity, and a progress bar for LLM
// verification, where per-finding counts are worth watching. Everything
// goes to stderr so reports on stdout stay machine-readable.
type ScanProgressReporter struct {
	quiet     bool
	verifyBar *progressbar.ProgressBar
	verified  int
	startTime time.Time
}

// NewScanProgressReporter creates a new progress reporter.
func NewScanProgressReporter(quiet bool) *ScanProgressReporter {
	return &ScanProgressReporter{
		quiet:     quiet,
		startTime: time.Now(),
	}
}

func (p *ScanProgressReporter) OnDiscoveryComplete(files, languages int) {
	if p.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "Discovered %d files across %d language(s)\n", files, languages)
}

func (p *ScanProgressReporter) OnScanStart(language, tool string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "Scanning %s files with %s...\n", language, tool)
}

func (p *ScanProgressReporter) OnScanComplete(language string, findings int) {
	if p.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "✓ %s: %d finding(s)\n", language, findings)
}

func (p *ScanProgressReporter) OnVerifyStart(total int) {
	if p.quiet {
		return
	}
	p.verified = 0
	p.verifyBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Verifying findings"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("verdicts/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func (p *ScanProgressReporter) OnVerifyProgress(verified int) {
	if p.quiet {
		return
	}
	if p.verifyBar != nil {
		delta := verified - p.verified
		if delta > 0 {
			p.verifyBar.Add(delta)
			p.verified = verified
		}
	}
}

func (p *ScanProgressReporter) OnVerifyComplete(truePositives, falsePositives, uncertain int) {
	if p.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "✓ Verification complete: %d true positive(s), %d false positive(s), %d uncertain\n",
		truePositives, falsePositives, uncertain)
}

func (p *ScanProgressReporter) OnComplete(findings int) {
	if p.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "✓ Scan complete: %d finding(s) in %.1fs\n",
		findings, time.Since(p.startTime).Seconds())
}
