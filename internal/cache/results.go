// Package cache provides an LRU of solve results keyed by the exact solve
// request. Agents driving the MCP server tend to repeat the same query; a
// hit skips the whole search.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tallykit/tallymcp/internal/reconcile"
)

// DefaultResultCacheSize is the default number of solve results to keep.
const DefaultResultCacheSize = 128

// Entry is a cached solve outcome.
type Entry struct {
	Views          []reconcile.View
	ElapsedSeconds float64
}

// ResultCache is a fixed-size LRU of solve results. Safe for concurrent use.
type ResultCache struct {
	cache *lru.Cache[string, Entry]
}

// NewResultCache creates a result cache with the given capacity.
func NewResultCache(size int) *ResultCache {
	if size <= 0 {
		size = DefaultResultCacheSize
	}
	cache, _ := lru.New[string, Entry](size)
	return &ResultCache{cache: cache}
}

// Key digests a solve request. Order of amounts matters: the same multiset
// in a different order yields different view indices.
func Key(numbers []float64, target float64, maxSolutions int) string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range numbers {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(target))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(maxSolutions))
	_, _ = h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached entry for a key, if present.
func (c *ResultCache) Get(key string) (Entry, bool) {
	return c.cache.Get(key)
}

// Add stores an entry under a key.
func (c *ResultCache) Add(key string, e Entry) {
	c.cache.Add(key, e)
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	return c.cache.Len()
}
