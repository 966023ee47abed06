package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/domain"
	"github.com/spec-kit/impactlens/internal/persistence"
)

const redisKeyPrefix = "impactlens:analysis:"

// computeFunc produces a fresh AnalysisResult for a cache miss.
type computeFunc func(ctx context.Context) (*domain.AnalysisResult, error)

type cacheEntry struct {
	result   *domain.AnalysisResult
	storedAt time.Time
	lastUsed time.Time
}

// inflight tracks one in-progress computation; joiners wait on done.
type inflight struct {
	done   chan struct{}
	result *domain.AnalysisResult
	err    error
}

// AnalysisCache memoizes pipeline output per request fingerprint with
// an at-most-one-concurrent-computation guarantee: concurrent callers
// sharing a fingerprint join the in-flight run instead of duplicating
// it. Entries expire after a TTL and the oldest-used entry is evicted
// when the cache is full. Failures are never cached.
//
// A Redis tier is optional; only the in-flight owner consults it, so
// the single-flight guarantee is unaffected.
type AnalysisCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	inflight   map[string]*inflight
	ttl        time.Duration
	maxEntries int
	redis      *persistence.Redis
	logger     *zap.Logger
}

// NewAnalysisCache constructs the cache. redis may be nil.
func NewAnalysisCache(ttl time.Duration, maxEntries int, redis *persistence.Redis, logger *zap.Logger) *AnalysisCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &AnalysisCache{
		entries:    make(map[string]*cacheEntry),
		inflight:   make(map[string]*inflight),
		ttl:        ttl,
		maxEntries: maxEntries,
		redis:      redis,
		logger:     logger,
	}
}

// GetOrCompute returns the cached result for the fingerprint or runs
// compute exactly once, no matter how many callers arrive concurrently.
// Callers served from cache or from a joined in-flight run receive a
// copy whose metadata has CacheHit set and ProcessingTime reflecting
// the lookup cost, not the original computation.
func (c *AnalysisCache) GetOrCompute(ctx context.Context, fp string, compute computeFunc) (*domain.AnalysisResult, error) {
	start := time.Now()
	now := start

	c.mu.Lock()
	if entry, ok := c.entries[fp]; ok {
		if now.Sub(entry.storedAt) < c.ttl {
			entry.lastUsed = now
			result := servedCopy(entry.result, start)
			c.mu.Unlock()
			return result, nil
		}
		delete(c.entries, fp)
	}
	if call, ok := c.inflight[fp]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if call.err != nil {
			return nil, call.err
		}
		return servedCopy(call.result, start), nil
	}
	call := &inflight{done: make(chan struct{})}
	c.inflight[fp] = call
	c.mu.Unlock()

	result, fromRedis := c.lookupRedis(ctx, fp)
	var err error
	if result == nil {
		result, err = compute(ctx)
	}

	c.mu.Lock()
	delete(c.inflight, fp)
	if err != nil {
		c.mu.Unlock()
		call.err = err
		close(call.done)
		return nil, err
	}
	c.storeLocked(fp, result, time.Now())
	c.mu.Unlock()
	call.result = result
	close(call.done)

	if !fromRedis {
		c.storeRedis(ctx, fp, result)
	}
	if fromRedis {
		return servedCopy(result, start), nil
	}
	return result, nil
}

// Sweep drops expired entries and returns how many were removed.
func (c *AnalysisCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for fp, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, fp)
			removed++
		}
	}
	return removed
}

// Len reports the number of resident entries.
func (c *AnalysisCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// storeLocked inserts an entry, evicting the least-recently-used entry
// when the cache is full. Must be called with the mutex held. Eviction
// only touches the entries map, never the inflight registry, so a
// concurrent computation for an evicted fingerprint stays single.
func (c *AnalysisCache) storeLocked(fp string, result *domain.AnalysisResult, now time.Time) {
	if len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for key, entry := range c.entries {
			if oldestKey == "" || entry.lastUsed.Before(oldest) {
				oldestKey = key
				oldest = entry.lastUsed
			}
		}
		if oldestKey != "" {
			delete(c.entries, oldestKey)
		}
	}
	c.entries[fp] = &cacheEntry{result: result, storedAt: now, lastUsed: now}
}

func (c *AnalysisCache) lookupRedis(ctx context.Context, fp string) (*domain.AnalysisResult, bool) {
	if c.redis == nil || c.redis.Client == nil {
		return nil, false
	}
	data, err := c.redis.Client.Get(ctx, redisKeyPrefix+fp).Bytes()
	if err != nil {
		return nil, false
	}
	var result domain.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("discarding undecodable cached analysis", zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (c *AnalysisCache) storeRedis(ctx context.Context, fp string, result *domain.AnalysisResult) {
	if c.redis == nil || c.redis.Client == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.redis.Client.Set(ctx, redisKeyPrefix+fp, data, c.ttl).Err(); err != nil {
		c.logger.Warn("analysis cache redis write failed", zap.Error(err))
	}
}

// servedCopy clones the result with cache-hit metadata. The report
// itself is immutable and shared, which keeps served reports
// byte-identical to the originally computed one.
func servedCopy(result *domain.AnalysisResult, lookupStart time.Time) *domain.AnalysisResult {
	served := *result
	served.Metadata.CacheHit = true
	served.Metadata.ProcessingTimeMillis = time.Since(lookupStart).Milliseconds()
	return &served
}
