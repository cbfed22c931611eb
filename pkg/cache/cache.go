// Package cache provides the bounded, TTL-based query cache that fronts the
// retrieval coordinator. The in-memory implementation is a single-mutex map
// with one-at-a-time least-recently-accessed eviction; a Redis-backed
// implementation is available for shared deployments.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// QueryCache caches ranked query results keyed by (query, parameters).
type QueryCache interface {
	// Get returns the cached results for the query, or ok=false on a miss.
	Get(ctx context.Context, query string, params map[string]interface{}) ([]types.RankedResult, bool)
	// Set stores results for the query, evicting if the cache is full.
	Set(ctx context.Context, query string, results []types.RankedResult, params map[string]interface{})
	// Clear drops every entry.
	Clear(ctx context.Context) error
	// Stats returns hit/miss counters since creation or the last Clear.
	Stats() Stats
}

// Stats holds cache effectiveness counters.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

// Key computes the cache key for a query and its parameters. Parameters are
// serialized in sorted key order so equivalent maps hash identically. An
// unserializable parameter value returns an error; callers treat that as a
// forced miss rather than a failure.
func Key(query string, params map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(query)
	for _, k := range keys {
		v, err := json.Marshal(params[k])
		if err != nil {
			return "", fmt.Errorf("cache key parameter %q: %w", k, err)
		}
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.Write(v)
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:]), nil
}

type entry struct {
	results    []types.RankedResult
	createdAt  time.Time
	lastAccess time.Time
}

// MemoryCache is the in-process QueryCache. All mutations, including the
// last-access refresh on Get, run under one mutex; contention is the
// intended bottleneck, not a correctness risk.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
	now     func() time.Time
}

// DefaultMaxSize and DefaultTTL apply when NewMemoryCache is given
// non-positive bounds.
const (
	DefaultMaxSize = 256
	DefaultTTL     = 5 * time.Minute
)

// NewMemoryCache creates a bounded in-memory cache.
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[string]*entry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements QueryCache. An entry is visible only while
// now - createdAt < ttl; expired entries are removed on access.
func (c *MemoryCache) Get(ctx context.Context, query string, params map[string]interface{}) ([]types.RankedResult, bool) {
	key, err := Key(query, params)
	if err != nil {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	e.lastAccess = c.now()
	c.hits++
	return e.results, true
}

// Set implements QueryCache. When the cache is full it evicts exactly one
// entry, the one with the oldest last access, before inserting.
func (c *MemoryCache) Set(ctx context.Context, query string, results []types.RankedResult, params map[string]interface{}) {
	key, err := Key(query, params)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	c.entries[key] = &entry{
		results:    results,
		createdAt:  now,
		lastAccess: now,
	}
}

// evictOldest removes the single entry with the oldest last access.
// Caller must hold the lock.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, e := range c.entries {
		if first || e.lastAccess.Before(oldest) {
			oldestKey = key
			oldest = e.lastAccess
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Clear implements QueryCache.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.hits = 0
	c.misses = 0
	return nil
}

// Stats implements QueryCache.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Len returns the current number of entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SetClock overrides the cache's time source. Test hook.
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
