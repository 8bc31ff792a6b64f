package enrich

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/scanner"
)

// Test Plan for enrichment:
// - Each finding gets the context for its own file and line
// - A finding pointing at a missing file keeps flowing, carrying the error
//   variant context
// - Result order matches input order under concurrent extraction

func newEnricher(t *testing.T) *Enricher {
	t.Helper()
	resolver, err := codectx.NewResolver(nil, codectx.Config{})
	require.NoError(t, err)
	t.Cleanup(resolver.Close)
	return NewEnricher(resolver, 0)
}

func TestEnrich_AttachesFunctionContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	source := "def handler(event):\n    token = event[\"token\"]\n    return token\n"
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	findings := []scanner.Finding{
		{Tool: "bandit", RuleID: "B105", File: path, Line: 2},
	}

	enriched := newEnricher(t).Enrich(context.Background(), findings, "python")
	require.Len(t, enriched, 1)

	ctx := enriched[0].Context
	require.NotNil(t, ctx)
	assert.Equal(t, codectx.KindFunction, ctx.ContextKind)
	assert.Equal(t, "handler", ctx.FunctionName)
	assert.Contains(t, ctx.ContextCode, "def handler(event):")
}

func TestEnrich_MissingFilePassesThrough(t *testing.T) {
	t.Parallel()

	findings := []scanner.Finding{
		{Tool: "bandit", RuleID: "B602", File: filepath.Join(t.TempDir(), "gone.py"), Line: 3},
	}

	enriched := newEnricher(t).Enrich(context.Background(), findings, "python")
	require.Len(t, enriched, 1, "extraction failure must not drop the finding")

	ctx := enriched[0].Context
	require.NotNil(t, ctx)
	assert.True(t, ctx.IsError())
	assert.Equal(t, "B602", enriched[0].RuleID)
}

func TestEnrich_KeepsOrderAcrossFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	findings := make([]scanner.Finding, 24)
	for i := range findings {
		path := filepath.Join(dir, fmt.Sprintf("mod%02d.py", i))
		source := fmt.Sprintf("def func%02d():\n    return %d\n", i, i)
		require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
		findings[i] = scanner.Finding{Tool: "bandit", RuleID: fmt.Sprintf("B%03d", i), File: path, Line: 1}
	}

	enriched := NewEnricher(mustResolver(t), 4).Enrich(context.Background(), findings, "python")
	require.Len(t, enriched, len(findings))

	for i, f := range enriched {
		require.NotNil(t, f.Context, "finding %d lost its context", i)
		assert.Equal(t, fmt.Sprintf("func%02d", i), f.Context.FunctionName)
	}
}

func mustResolver(t *testing.T) *codectx.Resolver {
	t.Helper()
	resolver, err := codectx.NewResolver(nil, codectx.Config{})
	require.NoError(t, err)
	t.Cleanup(resolver.Close)
	return resolver
}
