package verify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relvet/revet/internal/config"
)

// Test Plan for the Verifier:
// - Verdicts are cached: the second identical request skips the provider
//   and comes back marked Cached
// - Provider failures degrade to uncertain verdicts and are never cached
// - A zero cache TTL disables caching entirely
// - VerifyBatch keeps results aligned with requests under concurrency
// - NewProvider rejects unknown names and missing API keys

type stubProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Verify(ctx context.Context, req Request) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{
		Decision:   DecisionTruePositive,
		Confidence: 0.9,
		Reasoning:  "rule " + req.RuleID,
	}, nil
}

func (s *stubProvider) Close() error { return nil }

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func cachingConfig() config.LLMConfig {
	cfg := config.Default().LLM
	cfg.Model = "stub-model"
	return cfg
}

func TestVerifier_CachesVerdicts(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{}
	v, err := NewVerifier(stub, cachingConfig())
	require.NoError(t, err)
	defer v.Close()

	req := Request{Tool: "bandit", RuleID: "B602", FilePath: "app.py", LineNumber: 9}

	first := v.Verify(context.Background(), req)
	assert.Equal(t, DecisionTruePositive, first.Decision)
	assert.False(t, first.Cached)
	require.Equal(t, 1, stub.callCount())

	// ristretto admits writes asynchronously
	v.cache.wait()

	second := v.Verify(context.Background(), req)
	assert.Equal(t, DecisionTruePositive, second.Decision)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, stub.callCount(), "cached verdict must not call the provider")
}

func TestVerifier_FailureIsUncertainAndUncached(t *testing.T) {
	t.Parallel()

	stub := &stubProvider{err: errors.New("rate limited")}
	v, err := NewVerifier(stub, cachingConfig())
	require.NoError(t, err)
	defer v.Close()

	req := Request{Tool: "bandit", RuleID: "B602"}

	result := v.Verify(context.Background(), req)
	assert.Equal(t, DecisionUncertain, result.Decision)
	assert.Zero(t, result.Confidence)
	assert.Contains(t, result.Reasoning, "rate limited")

	// Test: once the provider recovers, a rerun gets a real verdict
	stub.mu.Lock()
	stub.err = nil
	stub.mu.Unlock()
	v.cache.wait()

	result = v.Verify(context.Background(), req)
	assert.Equal(t, DecisionTruePositive, result.Decision)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, stub.callCount())
}

func TestVerifier_ZeroTTLDisablesCache(t *testing.T) {
	t.Parallel()

	cfg := cachingConfig()
	cfg.CacheTTLSeconds = 0

	stub := &stubProvider{}
	v, err := NewVerifier(stub, cfg)
	require.NoError(t, err)
	defer v.Close()

	req := Request{Tool: "gosec", RuleID: "G404"}
	v.Verify(context.Background(), req)
	v.Verify(context.Background(), req)
	assert.Equal(t, 2, stub.callCount())
}

func TestVerifier_VerifyBatchAlignment(t *testing.T) {
	t.Parallel()

	cfg := cachingConfig()
	cfg.CacheTTLSeconds = 0
	cfg.MaxConcurrent = 3

	stub := &stubProvider{}
	v, err := NewVerifier(stub, cfg)
	require.NoError(t, err)
	defer v.Close()

	reqs := make([]Request, 20)
	for i := range reqs {
		reqs[i] = Request{Tool: "bandit", RuleID: fmt.Sprintf("B%03d", i)}
	}

	results := v.VerifyBatch(context.Background(), reqs)
	require.Len(t, results, len(reqs))
	for i, result := range results {
		assert.Equal(t, "rule "+reqs[i].RuleID, result.Reasoning, "result %d out of order", i)
	}
	assert.Equal(t, len(reqs), stub.callCount())
}

func TestNewProvider_UnknownName(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(config.LLMConfig{Provider: "bard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewProvider_MissingAPIKeys(t *testing.T) {
	// Test: keys come from the environment only; empty means missing
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewProvider(config.LLMConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err = NewProvider(config.LLMConfig{Provider: "anthropic"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewProvider_BuildsConfiguredProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	p, err := NewProvider(config.LLMConfig{Provider: "openai", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	p, err = NewProvider(config.LLMConfig{Provider: "Anthropic"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}
