package context

import (
	"fmt"
	"os"
	"time"

	"github.com/maypok86/otter"
)

// fileCache is a bounded read-through cache of file contents. Entries are
// keyed by path plus size plus mtime, so an edited file misses naturally
// instead of serving stale bytes. Cached slices are shared between callers
// and must be treated as read-only.
type fileCache struct {
	entries otter.Cache[string, []byte]
}

func newFileCache(capacity int, ttl time.Duration) (*fileCache, error) {
	entries, err := otter.MustBuilder[string, []byte](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, err
	}
	return &fileCache{entries: entries}, nil
}

func (c *fileCache) read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())

	if data, ok := c.entries.Get(key); ok {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.entries.Set(key, data)
	return data, nil
}

func (c *fileCache) close() {
	c.entries.Close()
}

// readFile returns the file's contents, through the cache when one is
// configured. Semantics are identical either way; the cache only saves
// repeated disk reads when many findings land in the same file.
func (r *Resolver) readFile(path string) ([]byte, error) {
	if r.files == nil {
		return os.ReadFile(path)
	}
	return r.files.read(path)
}
