package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache categories recorded by DashboardService.
const (
	CategorySeries     = "series"
	CategoryLagProfile = "lag_profile"
	categoryOverall    = "overall"
	statsReportKey     = "cache:analytics:stats"
)

// CacheStats represents cache statistics
type CacheStats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	HitRate     float64   `json:"hit_rate"`
	TotalOps    int64     `json:"total_ops"`
	LastUpdated time.Time `json:"last_updated"`
}

// CacheMetrics represents detailed cache metrics by category
type CacheMetrics struct {
	Overall    CacheStats            `json:"overall"`
	ByCategory map[string]CacheStats `json:"by_category"`
	RedisInfo  map[string]string     `json:"redis_info,omitempty"`
	KeyCount   int64                 `json:"key_count"`
	Backend    string                `json:"backend"`
}

// CacheAnalyticsService tracks memo hit rates per request category.
// redisClient may be nil when the memo is disabled.
type CacheAnalyticsService struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	stats       map[string]*CacheStats
	mu          sync.RWMutex
}

// NewCacheAnalyticsService creates a new cache analytics service
func NewCacheAnalyticsService(redisClient *redis.Client, logger *logrus.Logger) *CacheAnalyticsService {
	if logger == nil {
		logger = logrus.New()
	}
	return &CacheAnalyticsService{
		redisClient: redisClient,
		logger:      logger,
		stats:       make(map[string]*CacheStats),
	}
}

// RecordHit records a cache hit for the given category
func (c *CacheAnalyticsService) RecordHit(category string) {
	c.record(category, true)
}

// RecordMiss records a cache miss for the given category
func (c *CacheAnalyticsService) RecordMiss(category string) {
	c.record(category, false)
}

func (c *CacheAnalyticsService) record(category string, hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, name := range []string{category, categoryOverall} {
		s := c.stats[name]
		if s == nil {
			s = &CacheStats{}
			c.stats[name] = s
		}
		if hit {
			s.Hits++
		} else {
			s.Misses++
		}
		s.TotalOps++
		s.HitRate = float64(s.Hits) / float64(s.TotalOps)
		s.LastUpdated = now
	}
}

// GetStats returns cache statistics for a specific category
func (c *CacheAnalyticsService) GetStats(category string) CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if stats, exists := c.stats[category]; exists {
		return *stats
	}
	return CacheStats{}
}

// GetAllStats returns all cache statistics
func (c *CacheAnalyticsService) GetAllStats() map[string]CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]CacheStats, len(c.stats))
	for category, stats := range c.stats {
		result[category] = *stats
	}
	return result
}

// GetMetrics returns hit statistics plus redis keyspace details when a redis backend is present.
func (c *CacheAnalyticsService) GetMetrics(ctx context.Context) (*CacheMetrics, error) {
	all := c.GetAllStats()
	metrics := &CacheMetrics{
		Overall:    all[categoryOverall],
		ByCategory: make(map[string]CacheStats, len(all)),
		Backend:    "none",
	}
	for k, v := range all {
		if k != categoryOverall {
			metrics.ByCategory[k] = v
		}
	}

	if c.redisClient == nil {
		return metrics, nil
	}
	metrics.Backend = "redis"

	keyCount, err := c.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	metrics.KeyCount = keyCount

	// INFO is optional; some redis-compatible servers reject sections
	if info, err := c.redisClient.Info(ctx, "memory", "keyspace").Result(); err == nil {
		metrics.RedisInfo = c.parseRedisInfo(info)
	}

	return metrics, nil
}

// parseRedisInfo parses Redis INFO command output
func (c *CacheAnalyticsService) parseRedisInfo(info string) map[string]string {
	result := make(map[string]string)
	if info == "" {
		return result
	}

	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			result[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return result
}

// ResetStats resets all cache statistics
func (c *CacheAnalyticsService) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = make(map[string]*CacheStats)
}

// StartPeriodicReporting persists stats to redis every interval until ctx is done.
func (c *CacheAnalyticsService) StartPeriodicReporting(ctx context.Context, interval time.Duration) {
	if c.redisClient == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.reportStats(ctx)
			}
		}
	}()
}

// reportStats reports current stats to Redis for persistence
func (c *CacheAnalyticsService) reportStats(ctx context.Context) {
	statsJSON, err := json.Marshal(c.GetAllStats())
	if err != nil {
		return
	}

	if err := c.redisClient.Set(ctx, statsReportKey, statsJSON, 24*time.Hour).Err(); err != nil {
		c.logger.WithError(err).Debug("Failed to persist cache analytics")
	}
}
