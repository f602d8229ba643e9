package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"venuebook/internal/config"
	"venuebook/internal/models"

	"github.com/redis/go-redis/v9"
)

const logSnapshotKey = "venuebook:confirmation_log"

// RedisSnapshotCache keeps the confirmation-log snapshot in Redis so repeated
// log reads between confirmations do not hit SQLite.
type RedisSnapshotCache struct {
	client *redis.Client
}

// NewRedisClient creates a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func (c *RedisSnapshotCache) GetLog(ctx context.Context) ([]*models.ConfirmationLogEntry, bool, error) {
	if c.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := c.client.Get(ctx, logSnapshotKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get log snapshot from redis: %w", err)
	}

	var entries []*models.ConfirmationLogEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal log snapshot: %w", err)
	}
	return entries, true, nil
}

func (c *RedisSnapshotCache) SetLog(ctx context.Context, entries []*models.ConfirmationLogEntry, ttl time.Duration) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal log snapshot: %w", err)
	}
	if err := c.client.Set(ctx, logSnapshotKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set log snapshot in redis: %w", err)
	}
	return nil
}

func (c *RedisSnapshotCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := c.client.Del(ctx, logSnapshotKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate log snapshot: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
