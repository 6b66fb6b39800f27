package api

import (
	"github.com/gin-gonic/gin"

	"github.com/irfndi/liquidity-lens/internal/api/handlers"
	"github.com/irfndi/liquidity-lens/internal/middleware"
	"github.com/irfndi/liquidity-lens/internal/services"
)

// SetupRoutes registers the health and dashboard API on router.
func SetupRoutes(
	router *gin.Engine,
	dashboardService *services.DashboardService,
	cacheAnalytics *services.CacheAnalyticsService,
	adminMiddleware *middleware.AdminMiddleware,
	version string,
) {
	healthHandler := handlers.NewHealthHandler(dashboardService, version)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	cacheHandler := handlers.NewCacheHandler(cacheAnalytics, dashboardService)

	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/health/live", healthHandler.LivenessCheck)

	v1 := router.Group("/api/v1")
	{
		dashboards := v1.Group("/dashboards")
		{
			dashboards.GET("", dashboardHandler.ListDashboards)
			dashboards.GET("/:version/series", dashboardHandler.GetSeries)
			dashboards.GET("/:version/lag-profile", dashboardHandler.GetLagProfile)
			dashboards.GET("/:version/tables", dashboardHandler.GetTables)
			dashboards.GET("/:version/walk-forward", dashboardHandler.GetWalkForward)
			dashboards.GET("/:version/criteria", dashboardHandler.GetCriteria)
		}

		cache := v1.Group("/cache")
		{
			cache.GET("/stats", cacheHandler.GetCacheStats)
			cache.GET("/stats/:category", cacheHandler.GetCacheStatsByCategory)
			cache.POST("/stats/reset", adminMiddleware.RequireAdminAuth(), cacheHandler.ResetCacheStats)
			cache.DELETE("", adminMiddleware.RequireAdminAuth(), cacheHandler.PurgeCache)
		}
	}
}
