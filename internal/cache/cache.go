// Package cache provides the advisory response cache: a Redis backend when
// configured and reachable, otherwise an in-process TTL map. All failures
// degrade to a miss; callers must always be able to fall through to the
// document store.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores JSON-serialized payloads under string keys with a TTL.
type Cache interface {
	// Get unmarshals the cached value for key into dest and reports whether
	// a live entry was found. Backend errors count as a miss.
	Get(ctx context.Context, key string, dest interface{}) bool
	// Set stores value under key for at most ttl. Errors are swallowed.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

const connectTimeout = 5 * time.Second

// New selects the cache backend. An empty redisURL, a malformed URL, or a
// failed ping all fall back to the in-process cache for the remainder of the
// process lifetime; there is no retry loop.
func New(ctx context.Context, redisURL string, logger *zap.Logger) Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if redisURL == "" {
		logger.Info("cache: REDIS_URL not set, using in-process cache")
		return NewMemory()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("cache: invalid redis url, falling back to in-process cache", zap.Error(err))
		return NewMemory()
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("cache: redis unreachable, falling back to in-process cache", zap.Error(err))
		_ = client.Close()
		return NewMemory()
	}

	logger.Info("cache: connected to redis")
	return NewRedis(client, logger)
}
