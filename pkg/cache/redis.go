package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexigraph/lexigraph/pkg/types"
)

// RedisCache is a QueryCache backed by Redis, for deployments where several
// service instances should share one cache. TTL enforcement is delegated to
// Redis key expiry; capacity eviction is delegated to the server's
// maxmemory policy, so the one-at-a-time LRU semantics of MemoryCache are
// approximated rather than reproduced exactly.
type RedisCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
	hits      atomic.Uint64
	misses    atomic.Uint64
}

// NewRedisCache creates a Redis-backed cache. The prefix namespaces keys so
// several caches can share one database.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, keyPrefix string) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if keyPrefix == "" {
		keyPrefix = "lexigraph:query:"
	}
	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Get implements QueryCache. Any Redis or decoding failure degrades to a
// miss; the cache never fails a search.
func (c *RedisCache) Get(ctx context.Context, query string, params map[string]interface{}) ([]types.RankedResult, bool) {
	key, err := Key(query, params)
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	var results []types.RankedResult
	if err := json.Unmarshal(raw, &results); err != nil {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return results, true
}

// Set implements QueryCache. Failures are silently dropped for the same
// reason as in Get.
func (c *RedisCache) Set(ctx context.Context, query string, results []types.RankedResult, params map[string]interface{}) {
	key, err := Key(query, params)
	if err != nil {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.keyPrefix+key, raw, c.ttl).Err()
}

// Clear implements QueryCache by deleting every key under the prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	c.hits.Store(0)
	c.misses.Store(0)
	return nil
}

// Stats implements QueryCache. Entries is -1: counting keys server-side on
// every stats call is not worth a SCAN.
func (c *RedisCache) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: -1}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
