// Package retrieval orchestrates query answering: cached vector search with
// a circuit breaker and bounded retry around the index, plus keyword/vector
// hybrid fusion.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/sony/gobreaker"

	"github.com/lexigraph/lexigraph/pkg/cache"
	"github.com/lexigraph/lexigraph/pkg/embedder"
	"github.com/lexigraph/lexigraph/pkg/telemetry"
	"github.com/lexigraph/lexigraph/pkg/types"
	"github.com/lexigraph/lexigraph/pkg/vectorindex"
)

// ErrEmptyQuery is returned when Search is called with an empty query.
var ErrEmptyQuery = errors.New("query must not be empty")

// Metric names recorded per search.
const (
	MetricCached = "cached"
	MetricSearch = "search"
)

// BreakerConfig configures the circuit breaker around the vector index.
type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
	// OnOpen is called whenever the breaker transitions to open. Optional.
	OnOpen func(name string)
}

// DefaultBreakerConfig returns a breaker that trips when at least 3 requests
// in the rolling interval fail at a 60% ratio.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		ReadyToTripRatio: 0.6,
	}
}

// Config holds Coordinator settings.
type Config struct {
	// SearchTimeout bounds each vector index attempt (default: 10 seconds).
	SearchTimeout time.Duration
	Retry         RetryConfig
	Breaker       BreakerConfig
}

// DefaultConfig returns the default Coordinator configuration.
func DefaultConfig() Config {
	return Config{
		SearchTimeout: 10 * time.Second,
		Retry:         DefaultRetryConfig(),
		Breaker:       DefaultBreakerConfig(),
	}
}

// Coordinator answers queries from the cache when possible and from the
// vector index otherwise, recording a latency sample either way.
type Coordinator struct {
	index   vectorindex.Index
	embed   embedder.Client
	cache   cache.QueryCache
	metrics *telemetry.Recorder
	breaker *gobreaker.CircuitBreaker
	retry   RetryConfig
	timeout time.Duration
	logger  *slog.Logger
}

// NewCoordinator wires a coordinator. cache and metrics may be nil, which
// disables caching and sample recording respectively.
func NewCoordinator(index vectorindex.Index, embed embedder.Client, queryCache cache.QueryCache, metrics *telemetry.Recorder, cfg Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultConfig().SearchTimeout
	}

	c := &Coordinator{
		index:   index,
		embed:   embed,
		cache:   queryCache,
		metrics: metrics,
		retry:   cfg.Retry.withDefaults(),
		timeout: cfg.SearchTimeout,
		logger:  logger,
	}

	if cfg.Breaker.Enabled {
		bc := cfg.Breaker
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "vector-index",
			MaxRequests: bc.MaxRequests,
			Interval:    bc.Interval,
			Timeout:     bc.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= bc.ReadyToTripRatio
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					"breaker", name, "from", from.String(), "to", to.String())
				if to == gobreaker.StateOpen && bc.OnOpen != nil {
					bc.OnOpen(name)
				}
			},
		})
	}

	return c
}

// Search returns the limit most similar indexed documents for the query,
// optionally restricted to documents whose metadata matches every filter
// entry. A cache hit short-circuits the index entirely.
func (c *Coordinator) Search(ctx context.Context, query string, limit int, filters map[string]interface{}) ([]types.RankedResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		return nil, types.ErrInvalidLimit
	}

	start := time.Now()
	params := cacheParams(limit, filters)

	if c.cache != nil {
		if results, ok := c.cache.Get(ctx, query, params); ok {
			c.record(MetricCached, start)
			c.logger.Debug("query served from cache", "query", query, "results", len(results))
			return results, nil
		}
	}

	hits, err := c.similaritySearch(ctx, query, limit, filters)
	if err != nil {
		return nil, err
	}

	results := make([]types.RankedResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, types.RankedResult{
			ID:       hit.ID,
			Content:  hit.Content,
			Score:    1 - hit.Distance,
			Metadata: hit.Metadata,
		})
	}

	if c.cache != nil && len(results) > 0 {
		c.cache.Set(ctx, query, results, params)
	}
	c.record(MetricSearch, start)
	c.logger.Debug("query served from index", "query", query, "results", len(results))
	return results, nil
}

// ClearCache drops every cached result set.
func (c *Coordinator) ClearCache(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Clear(ctx)
}

// CacheStats reports cache hit/miss counters, or zero stats when no cache
// is configured.
func (c *Coordinator) CacheStats() cache.Stats {
	if c.cache == nil {
		return cache.Stats{}
	}
	return c.cache.Stats()
}

// SearchStats aggregates latency samples for a metric over the trailing
// window.
func (c *Coordinator) SearchStats(metric string, window time.Duration) telemetry.MetricStats {
	if c.metrics == nil {
		return telemetry.MetricStats{}
	}
	return c.metrics.Stats(metric, window)
}

// similaritySearch embeds the query and runs the index call under the
// per-attempt timeout, breaker, and retry budget. Index errors surface to
// the caller once the budget is exhausted.
func (c *Coordinator) similaritySearch(ctx context.Context, query string, limit int, filters map[string]interface{}) ([]vectorindex.Hit, error) {
	queryVec, err := c.embed.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// With filters the post-filter result count is unpredictable, so
	// search the whole index and filter down.
	searchLimit := limit
	if len(filters) > 0 {
		n, err := c.index.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to size filtered search: %w", err)
		}
		searchLimit = n
	}
	if searchLimit == 0 {
		return nil, nil
	}

	var hits []vectorindex.Hit
	err = withRetry(ctx, c.retry, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		run := func() ([]vectorindex.Hit, error) {
			return c.index.SimilaritySearch(attemptCtx, queryVec, searchLimit)
		}

		var attemptErr error
		if c.breaker != nil {
			var out interface{}
			out, attemptErr = c.breaker.Execute(func() (interface{}, error) { return run() })
			if attemptErr == nil {
				hits = out.([]vectorindex.Hit)
			}
		} else {
			hits, attemptErr = run()
		}
		return attemptErr
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	if len(filters) > 0 {
		filtered := hits[:0]
		for _, hit := range hits {
			if matchesFilters(hit.Metadata, filters) {
				filtered = append(filtered, hit)
			}
		}
		hits = filtered
		if len(hits) > limit {
			hits = hits[:limit]
		}
	}
	return hits, nil
}

func (c *Coordinator) record(metric string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordDuration(metric, time.Since(start))
	}
}

// cacheParams builds the cache key parameters so that the same query with
// different limits or filters occupies distinct entries.
func cacheParams(limit int, filters map[string]interface{}) map[string]interface{} {
	params := map[string]interface{}{"limit": limit}
	for k, v := range filters {
		params["filter:"+k] = v
	}
	return params
}

func matchesFilters(metadata, filters map[string]interface{}) bool {
	for k, want := range filters {
		got, ok := metadata[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
