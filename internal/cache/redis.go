package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache stores JSON payloads in Redis, relying on its native TTL
// eviction.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis wraps a connected client.
func NewRedis(client *redis.Client, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, logger: logger}
}

// Get reads and unmarshals a cached value. Any backend or decode error is a
// miss.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("cache: redis get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		c.logger.Debug("cache: stale payload discarded", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set marshals and stores a value. The TTL is truncated to whole seconds
// with a floor of one second.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("cache: marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	secs := ttl / time.Second
	if secs < 1 {
		secs = 1
	}
	if err := c.client.Set(ctx, key, payload, secs*time.Second).Err(); err != nil {
		c.logger.Debug("cache: redis set failed", zap.String("key", key), zap.Error(err))
	}
}
