package verify

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relvet/revet/internal/config"
)

const defaultMaxConcurrent = 5

// Verifier drives finding verification: the verdict cache, bounded
// concurrent provider calls, and degradation to uncertain verdicts on
// failure.
type Verifier struct {
	provider      Provider
	cache         *verdictCache
	cacheScope    string
	temperature   float64
	maxConcurrent int
}

// NewVerifier wraps a provider. A nonpositive cache TTL disables the verdict
// cache.
func NewVerifier(provider Provider, cfg config.LLMConfig) (*Verifier, error) {
	v := &Verifier{
		provider:      provider,
		cacheScope:    provider.Name() + "/" + cfg.Model,
		temperature:   cfg.Temperature,
		maxConcurrent: cfg.MaxConcurrent,
	}
	if v.maxConcurrent <= 0 {
		v.maxConcurrent = defaultMaxConcurrent
	}

	if ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second; ttl > 0 {
		cache, err := newVerdictCache(ttl)
		if err != nil {
			return nil, fmt.Errorf("creating verdict cache: %w", err)
		}
		v.cache = cache
	}

	return v, nil
}

// Verify returns the verdict for one finding, from cache when possible. It
// never returns an error: a provider or decode failure becomes an uncertain
// verdict so one bad call cannot sink a scan. Failed verdicts are not
// cached, so a rerun retries them.
func (v *Verifier) Verify(ctx context.Context, req Request) Result {
	prompt := userPrompt(req)
	key := verdictKey(v.cacheScope, v.temperature, prompt)

	if v.cache != nil {
		if result, ok := v.cache.get(key); ok {
			result.Cached = true
			return result
		}
	}

	result, err := v.provider.Verify(ctx, req)
	if err != nil {
		log.Printf("Warning: verification failed for %s at %s:%d: %v", req.RuleID, req.FilePath, req.LineNumber, err)
		failed := Uncertain(fmt.Sprintf("verification failed: %v", err))
		failed.Model = v.cacheScope
		return failed
	}
	result.Model = v.cacheScope

	if v.cache != nil {
		v.cache.set(key, result)
	}
	return result
}

// VerifyBatch verifies findings concurrently, bounded by max_concurrent.
// Results line up index-for-index with the requests.
func (v *Verifier) VerifyBatch(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxConcurrent)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = v.Verify(ctx, req)
			return nil
		})
	}
	// Workers report through results, never through errors.
	_ = g.Wait()

	return results
}

// Close releases the cache and the provider.
func (v *Verifier) Close() error {
	if v.cache != nil {
		v.cache.close()
	}
	return v.provider.Close()
}
