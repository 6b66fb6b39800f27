package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/liquidity-lens/internal/api"
	"github.com/irfndi/liquidity-lens/internal/cache"
	"github.com/irfndi/liquidity-lens/internal/config"
	"github.com/irfndi/liquidity-lens/internal/database"
	"github.com/irfndi/liquidity-lens/internal/dataset"
	"github.com/irfndi/liquidity-lens/internal/logging"
	"github.com/irfndi/liquidity-lens/internal/middleware"
	"github.com/irfndi/liquidity-lens/internal/services"
	"github.com/irfndi/liquidity-lens/internal/telemetry"
)

const statsReportInterval = 5 * time.Minute

func main() {
	hashKey := flag.String("hash-admin-key", "", "print the bcrypt hash of the given admin key and exit")
	hashCost := flag.Int("bcrypt-cost", 12, "bcrypt cost used with -hash-admin-key")
	flag.Parse()

	if *hashKey != "" {
		if err := printAdminKeyHash(os.Stdout, *hashKey, *hashCost); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to hash admin key: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, otlpLogger := newLogger(cfg)
	if otlpLogger != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otlpLogger.Shutdown(ctx)
		}()
	}
	logrusLogger := logging.NewLogrus(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTelemetry(ctx, telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logrusLogger.WithError(err).Warn("Failed to shutdown telemetry")
		}
	}()

	app, err := newApplication(ctx, cfg, logger, logrusLogger)
	if err != nil {
		return err
	}
	defer app.Close()

	app.cacheAnalytics.StartPeriodicReporting(ctx, statsReportInterval)
	logger.LogResourceStats(cfg.Telemetry.ServiceName, resourceStats(app))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.LogStartup(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.LogShutdown(cfg.Telemetry.ServiceName, "signal received")
	}

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrusLogger.Info("Server exited gracefully")
	return nil
}

func newLogger(cfg *config.Config) (*logging.StandardLogger, *logging.OTLPLogger) {
	if !cfg.Telemetry.OTLPLogs {
		return logging.NewStandardLogger(cfg.LogLevel), nil
	}
	return logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Enabled:        true,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
	})
}

// application holds the wired dependencies behind the HTTP router.
type application struct {
	router         *gin.Engine
	store          *dataset.Store
	redis          *database.RedisClient
	memo           *cache.RedisRecomputeCache
	cacheAnalytics *services.CacheAnalyticsService
	dashboard      *services.DashboardService
}

func newApplication(ctx context.Context, cfg *config.Config, logger *logging.StandardLogger, logrusLogger *logrus.Logger) (*application, error) {
	store, err := dataset.Load(cfg.Dataset, cfg.Analytics, logrusLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}

	app := &application{store: store}

	// A nil memo interface keeps DashboardService on direct compute
	var memo cache.RecomputeCache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		recovery := services.NewErrorRecoveryManager(logrusLogger)
		app.redis, err = database.NewRedisConnectionWithRetry(ctx, cfg.Redis, logrusLogger, recovery)
		if err != nil {
			logrusLogger.WithError(err).Warn("Redis unreachable, recompute memo will miss until it recovers")
			app.redis = database.NewRedisClient(cfg.Redis, logrusLogger)
		}
		redisClient = app.redis.Client
		app.memo = cache.NewRedisRecomputeCache(redisClient, cfg.CacheTTL(), cfg.Cache.KeyPrefix, logrusLogger)
		memo = app.memo
	}

	app.cacheAnalytics = services.NewCacheAnalyticsService(redisClient, logrusLogger)
	app.dashboard = services.NewDashboardService(store, memo, app.cacheAnalytics, cfg.Analytics, logrusLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(middleware.TelemetryMiddleware())
	router.Use(middleware.RequestLogger(logger))

	api.SetupRoutes(router, app.dashboard, app.cacheAnalytics,
		middleware.NewAdminMiddleware(cfg.Security), cfg.Telemetry.ServiceVersion)
	app.router = router

	return app, nil
}

// Close logs final memo statistics and releases the redis client.
func (a *application) Close() {
	if a.memo != nil {
		a.memo.LogStats()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

func resourceStats(app *application) map[string]interface{} {
	stats := map[string]interface{}{
		"datasets":     app.store.Versions(),
		"memo_enabled": app.memo != nil,
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats["memory_total_mb"] = vm.Total / 1024 / 1024
		stats["memory_used_percent"] = vm.UsedPercent
	}
	return stats
}

func printAdminKeyHash(w io.Writer, key string, cost int) error {
	hash, err := middleware.HashAdminKey(key, cost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}
