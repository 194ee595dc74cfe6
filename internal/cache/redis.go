package cache

import (
	"context"
	"time"

	"equipment-rental-backend/internal/config"
	"equipment-rental-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis. It returns nil when no address is
// configured or the server does not answer, so callers fall back to the
// in-memory store.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, using in-memory idempotency store", "addr", cfg.Addr, "error", err)
		client.Close()
		return nil
	}
	logger.Info("Connected to Redis", "addr", cfg.Addr)
	return client
}
