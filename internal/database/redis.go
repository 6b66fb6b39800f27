package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/liquidity-lens/internal/config"
)

const redisConnectTimeout = 5 * time.Second

// ErrorRecoveryManager interface for retry logic
type ErrorRecoveryManager interface {
	ExecuteWithRetry(ctx context.Context, operationName string, operation func() error) error
}

// RedisClient owns the redis connection behind the recompute memo.
type RedisClient struct {
	Client *redis.Client
	logger *logrus.Logger
}

// NewRedisClient builds a traced client without contacting the server.
func NewRedisClient(cfg config.RedisConfig, logger *logrus.Logger) *RedisClient {
	if logger == nil {
		logger = logrus.New()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	rdb.AddHook(NewTracingHook(cfg.Addr(), cfg.DB))
	return &RedisClient{Client: rdb, logger: logger}
}

// NewRedisConnection connects and pings once.
func NewRedisConnection(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger) (*RedisClient, error) {
	return NewRedisConnectionWithRetry(ctx, cfg, logger, nil)
}

// NewRedisConnectionWithRetry connects and pings through errorRecoveryManager
// under the "redis_connect" policy. A nil manager pings once.
func NewRedisConnectionWithRetry(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger, errorRecoveryManager ErrorRecoveryManager) (*RedisClient, error) {
	client := NewRedisClient(cfg, logger)
	rdb := client.Client

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	}

	var err error
	if errorRecoveryManager != nil {
		err = errorRecoveryManager.ExecuteWithRetry(ctx, "redis_connect", ping)
	} else {
		err = ping()
	}
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	client.logger.WithFields(logrus.Fields{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	}).Info("Successfully connected to Redis")

	return client, nil
}

func (r *RedisClient) Close() {
	if r.Client != nil {
		if err := r.Client.Close(); err != nil {
			r.logger.WithError(err).Warn("Error closing Redis connection")
			return
		}
		r.logger.Info("Redis connection closed")
	}
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
