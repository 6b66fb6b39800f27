package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/liquidity-lens/internal/analytics"
)

// DefaultPrefix namespaces memoized recompute outputs in redis.
const DefaultPrefix = "recompute:"

// RecomputeCacheEntry wraps a memoized value with metadata
type RecomputeCacheEntry struct {
	Value     json.RawMessage `json:"value"`
	CachedAt  time.Time       `json:"cached_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// RecomputeCacheStats tracks cache performance metrics
type RecomputeCacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Errors  int64 `json:"errors"`
	Cleared int64 `json:"cleared"`
	mu      sync.RWMutex
}

// RecomputeCache memoizes recompute outputs keyed on dataset identity and parameters.
type RecomputeCache interface {
	Get(ctx context.Context, key string, dst interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Clear(ctx context.Context) (int, error)
	GetStats() RecomputeCacheStats
	Ping(ctx context.Context) error
}

// RedisRecomputeCache implements RecomputeCache using Redis. Reads and writes
// go through a circuit breaker; while it is open they are skipped.
type RedisRecomputeCache struct {
	redis   *redis.Client
	ttl     time.Duration
	stats   *RecomputeCacheStats
	prefix  string
	breaker *CircuitBreaker
	logger  *logrus.Logger
}

// NewRedisRecomputeCache creates a new Redis-based recompute memo
func NewRedisRecomputeCache(redisClient *redis.Client, ttl time.Duration, prefix string, logger *logrus.Logger) *RedisRecomputeCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisRecomputeCache{
		redis:   redisClient,
		ttl:     ttl,
		stats:   &RecomputeCacheStats{},
		prefix:  prefix,
		breaker: NewCircuitBreaker("recompute_memo", DefaultCircuitBreakerConfig(), logger),
		logger:  logger,
	}
}

// WithCircuitBreaker replaces the default breaker.
func (c *RedisRecomputeCache) WithCircuitBreaker(cb *CircuitBreaker) *RedisRecomputeCache {
	c.breaker = cb
	return c
}

// Breaker exposes the circuit breaker guarding redis.
func (c *RedisRecomputeCache) Breaker() *CircuitBreaker {
	return c.breaker
}

// SeriesKey builds the memo key for one series recompute:
// <version>:<fingerprint>:<lag>:<max_lag>:<smoothing>:<blend>:<weight>:<clip>:<min_pairs>.
// Every Params field that changes the Result is part of the key.
func SeriesKey(version, fingerprint string, p analytics.Params) string {
	return fmt.Sprintf("%s:%s:%d:%d:%d:%t:%s:%s:%d",
		version, fingerprint, p.Lag, p.MaxLag, p.Smoothing, p.BlendEnabled,
		strconv.FormatFloat(p.BlendWeight, 'g', -1, 64),
		strconv.FormatFloat(p.ClipBound, 'g', -1, 64),
		p.MinPairs,
	)
}

// LagProfileKey builds the memo key for a lag profile sweep.
func LagProfileKey(version, fingerprint string, maxLag, minPairs int) string {
	return fmt.Sprintf("%s:%s:profile:%d:%d", version, fingerprint, maxLag, minPairs)
}

// Get decodes the memoized value for key into dst. It reports false on a
// miss or on any redis or decoding failure.
func (c *RedisRecomputeCache) Get(ctx context.Context, key string, dst interface{}) bool {
	cacheKey := c.prefix + key

	var data []byte
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		b, err := c.redis.Get(ctx, cacheKey).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		data = b
		return err
	})
	switch {
	case errors.Is(err, ErrCircuitOpen):
		c.recordMiss(false)
		return false
	case err != nil && ctx.Err() != nil:
		c.logger.WithError(err).WithField("key", cacheKey).Debug("Recompute memo read abandoned")
		c.recordMiss(false)
		return false
	case err != nil:
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Redis error reading recompute memo")
		c.recordMiss(true)
		return false
	case data == nil:
		c.recordMiss(false)
		return false
	}

	var entry RecomputeCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Discarding undecodable recompute memo")
		c.recordMiss(true)
		return false
	}
	if err := json.Unmarshal(entry.Value, dst); err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Recompute memo does not match requested type")
		c.recordMiss(true)
		return false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return true
}

// Set stores value under key with the configured TTL. Failures are logged and swallowed.
func (c *RedisRecomputeCache) Set(ctx context.Context, key string, value interface{}) {
	cacheKey := c.prefix + key

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Error("Failed to serialize recompute memo")
		c.recordError()
		return
	}

	now := time.Now()
	data, err := json.Marshal(RecomputeCacheEntry{
		Value:     raw,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		c.recordError()
		return
	}

	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.redis.Set(ctx, cacheKey, data, c.ttl).Err()
	})
	if errors.Is(err, ErrCircuitOpen) {
		return
	}
	if err != nil && ctx.Err() != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Debug("Recompute memo write abandoned")
		return
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("Redis error writing recompute memo")
		c.recordError()
		return
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
}

// Clear removes every memoized entry under the prefix and returns how many were deleted.
func (c *RedisRecomputeCache) Clear(ctx context.Context) (int, error) {
	pattern := c.prefix + "*"

	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing cache: %w", err)
	}

	c.stats.mu.Lock()
	c.stats.Cleared += int64(len(keys))
	c.stats.mu.Unlock()

	c.logger.WithField("entries", len(keys)).Info("Cleared recompute memo")
	return len(keys), nil
}

// Ping checks the redis connection.
func (c *RedisRecomputeCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// GetStats returns current cache statistics
func (c *RedisRecomputeCache) GetStats() RecomputeCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return RecomputeCacheStats{
		Hits:    c.stats.Hits,
		Misses:  c.stats.Misses,
		Sets:    c.stats.Sets,
		Errors:  c.stats.Errors,
		Cleared: c.stats.Cleared,
	}
}

// HitRate returns hits as a percentage of lookups.
func (s *RecomputeCacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// LogStats logs current cache performance statistics
func (c *RedisRecomputeCache) LogStats() {
	stats := c.GetStats()
	c.logger.WithFields(logrus.Fields{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"errors":   stats.Errors,
		"hit_rate": fmt.Sprintf("%.2f%%", stats.HitRate()),
		"breaker":  c.breaker.GetState().String(),
	}).Info("Recompute cache stats")
}

func (c *RedisRecomputeCache) recordMiss(failed bool) {
	c.stats.mu.Lock()
	c.stats.Misses++
	if failed {
		c.stats.Errors++
	}
	c.stats.mu.Unlock()
}

func (c *RedisRecomputeCache) recordError() {
	c.stats.mu.Lock()
	c.stats.Errors++
	c.stats.mu.Unlock()
}
