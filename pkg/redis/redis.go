package redis

import (
	"context"
	"fmt"
	"time"

	"cost-sage/pkg/config"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient connects to redis and pings it. It returns nil, nil when no
// address is configured so callers can fall back to in-process behavior.
func NewClient(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*goredis.Client, error) {
	if cfg.Addr == "" {
		logger.Info("Redis address not configured, idempotency keys disabled")
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("Connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}
