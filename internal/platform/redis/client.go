// File: internal/platform/redis/client.go
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/config"
)

// New connects to REDIS_URL. It returns (nil, nil) when Redis is not
// configured; callers treat a nil client as "feature disabled".
func New(cfg *config.Config, logger *zap.Logger) (*goredis.Client, error) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set; rate limiting disabled and token blocklist kept in memory")
		return nil, nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", opts.Addr))
	return client, nil
}

// Close closes the client if it was created.
func Close(client *goredis.Client, logger *zap.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Error("Error closing Redis client", zap.Error(err))
	}
}
