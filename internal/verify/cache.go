package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	cacheNumCounters = 1e5 // counters for admission policy
	cacheMaxCost     = 1e7 // 10MB of verdicts
	cacheBufferItems = 64  // buffer items for async writes
)

// verdictCache memoizes verdicts so re-running a scan does not re-bill
// unchanged findings. Entries expire after the configured TTL.
type verdictCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newVerdictCache(ttl time.Duration) (*verdictCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &verdictCache{cache: cache, ttl: ttl}, nil
}

// verdictKey hashes everything that influences a verdict: model identity,
// temperature (rounded so float jitter cannot split the key), and the
// rendered prompt.
func verdictKey(model string, temperature float64, prompt string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.2f|%s", model, temperature, prompt)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *verdictCache) get(key string) (Result, bool) {
	value, found := c.cache.Get(key)
	if !found {
		return Result{}, false
	}
	result, ok := value.(Result)
	if !ok {
		return Result{}, false
	}
	return result, true
}

func (c *verdictCache) set(key string, result Result) {
	cost := int64(len(result.Reasoning) + len(result.Exploitability) +
		len(result.Remediation) + len(result.FalsePositiveReason) + 64)
	c.cache.SetWithTTL(key, result, cost, c.ttl)
}

// wait flushes pending async writes; reads issued after wait see them.
func (c *verdictCache) wait() {
	c.cache.Wait()
}

func (c *verdictCache) close() {
	c.cache.Close()
}
