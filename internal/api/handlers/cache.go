package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/liquidity-lens/internal/services"
)

// CacheAnalyticsInterface defines the interface for cache analytics operations
type CacheAnalyticsInterface interface {
	GetStats(category string) services.CacheStats
	GetAllStats() map[string]services.CacheStats
	GetMetrics(ctx context.Context) (*services.CacheMetrics, error)
	ResetStats()
}

// CachePurger clears the recompute memo
type CachePurger interface {
	ClearCache(ctx context.Context) (int, error)
}

// CacheHandler handles cache monitoring and purge endpoints
type CacheHandler struct {
	cacheAnalytics CacheAnalyticsInterface
	purger         CachePurger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cacheAnalytics CacheAnalyticsInterface, purger CachePurger) *CacheHandler {
	return &CacheHandler{
		cacheAnalytics: cacheAnalytics,
		purger:         purger,
	}
}

// GetCacheStats returns memo hit statistics and backend details
// @Summary Get cache statistics
// @Description Recompute memo hit/miss statistics per category plus redis keyspace details
// @Tags cache
// @Produce json
// @Success 200 {object} services.CacheMetrics
// @Router /api/v1/cache/stats [get]
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	metrics, err := h.cacheAnalytics.GetMetrics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to get cache metrics: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    metrics,
	})
}

// GetCacheStatsByCategory returns cache statistics for a specific category
// @Summary Get cache statistics by category
// @Tags cache
// @Param category path string true "Cache category (series, lag_profile)"
// @Produce json
// @Success 200 {object} services.CacheStats
// @Router /api/v1/cache/stats/{category} [get]
func (h *CacheHandler) GetCacheStatsByCategory(c *gin.Context) {
	category := c.Param("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Category parameter is required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.cacheAnalytics.GetStats(category),
	})
}

// ResetCacheStats resets all cache statistics
// @Summary Reset cache statistics
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/cache/stats/reset [post]
func (h *CacheHandler) ResetCacheStats(c *gin.Context) {
	h.cacheAnalytics.ResetStats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cache statistics reset successfully",
	})
}

// PurgeCache deletes every memoized recompute
// @Summary Purge recompute memo
// @Description Delete all memoized results. Requires the admin API key.
// @Tags cache
// @Security AdminKey
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/cache [delete]
func (h *CacheHandler) PurgeCache(c *gin.Context) {
	deleted, err := h.purger.ClearCache(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to purge cache: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": deleted},
	})
}
