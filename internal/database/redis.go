package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/config"
)

// NewRedisClient connects to redis for live-position broadcasting. Returns
// nil when no address is configured or the server is unreachable; callers
// treat a nil client as "broadcasting disabled".
func NewRedisClient(cfg config.RedisConfig, logger *logrus.Logger) *redis.Client {
	if cfg.Addr == "" {
		logger.Info("Redis not configured, live position broadcasting disabled")
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
		logger.WithError(err).Warn("Redis unreachable, live position broadcasting disabled")
		_ = client.Close()
		return nil
	}

	logger.WithField("addr", cfg.Addr).Info("Redis connection established")
	return client
}
