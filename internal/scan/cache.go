package scan

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/maypok86/otter"

	"repoviz/internal/codebase"
	"repoviz/internal/paths"
)

// Cache holds recent results keyed by input fingerprint, so rescanning an
// unchanged tree skips extraction.
type Cache struct {
	c otter.Cache[string, *Result]
}

// NewCache creates a cache holding up to size results for ttl.
func NewCache(size int, ttl time.Duration) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	c, err := otter.MustBuilder[string, *Result](size).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build result cache: %w", err)
	}
	return &Cache{c: c}, nil
}

// Get returns the cached result for key.
func (c *Cache) Get(key string) (*Result, bool) {
	return c.c.Get(key)
}

// Put stores r under key.
func (c *Cache) Put(key string, r *Result) {
	c.c.Set(key, r)
}

// Close stops the cache's expiry goroutine.
func (c *Cache) Close() {
	c.c.Close()
}

// Fingerprint hashes the (path, content) pairs of inputs independent of
// their order.
func Fingerprint(inputs []codebase.FileInput) string {
	type entry struct{ path, content string }
	entries := make([]entry, len(inputs))
	for i, in := range inputs {
		entries[i] = entry{paths.NormalizePath(in.Path), in.Content}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	h := sha256.New()
	var n [8]byte
	for _, e := range entries {
		for _, s := range []string{e.path, e.content} {
			binary.BigEndian.PutUint64(n[:], uint64(len(s)))
			h.Write(n[:])
			h.Write([]byte(s))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
