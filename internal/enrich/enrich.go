// Package enrich attaches extracted code context to scanner findings. Every
// finding comes back with a context, even if only the error variant; a
// finding is never dropped because its file could not be read or parsed.
package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"

	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/scanner"
)

const defaultMaxConcurrent = 8

// Enricher fans findings out over a context resolver. The resolver's file
// cache makes repeated findings in one file cheap.
type Enricher struct {
	resolver      *codectx.Resolver
	maxConcurrent int
}

// NewEnricher wraps a resolver. maxConcurrent bounds the fan-out; values
// below one select the default.
func NewEnricher(resolver *codectx.Resolver, maxConcurrent int) *Enricher {
	if maxConcurrent < 1 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Enricher{
		resolver:      resolver,
		maxConcurrent: maxConcurrent,
	}
}

// Enrich attaches context to every finding in place and returns the slice.
// All findings from one scanner share a language, so the caller passes it
// once. Cancelling ctx stops scheduling new extractions; findings already
// processed keep their context, the rest pass through without one.
func (e *Enricher) Enrich(ctx context.Context, findings []scanner.Finding, language string) []scanner.Finding {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)

	for i := range findings {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := &findings[i]
			f.Context = e.resolver.Extract(f.File, f.Line, language)
			return nil
		})
	}
	// Extraction never errors; only cancellation surfaces here.
	_ = g.Wait()

	return findings
}
