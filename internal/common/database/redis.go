// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rms-insight-workers/internal/common/config"
)

// probeKey is written by Ready to prove the insight cache accepts writes.
const probeKey = "insights:probe"

// RedisClient wraps the insight result cache.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisClient{Client: rdb}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Ready writes a short-lived probe key. A read-only replica pings fine but
// would silently drop every cached table.
func (c *RedisClient) Ready(ctx context.Context) error {
	if err := c.Client.Set(ctx, probeKey, time.Now().Unix(), 30*time.Second).Err(); err != nil {
		return fmt.Errorf("redis cache not writable: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
