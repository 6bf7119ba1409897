package users

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on top of Redis. Lookups and writes are
// best-effort: a broken cache logs and reports a miss rather than failing
// the request.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Ensure RedisCache implements Cache interface.
var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to the configured Redis instance.
// Returns nil when no cache address is configured, which disables caching
// at the resolver.
func NewRedisCache(cfg config.CacheConfig, logger *slog.Logger) *RedisCache {
	if cfg.Addr == "" {
		return nil
	}

	if logger == nil {
		logger = slog.Default()
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr}),
		ttl:    ttl,
		logger: logger.With(slog.String("component", "user_cache")),
	}
}

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", "error", err, "key", key)
		}
		return nil, false
	}
	return raw, true
}

// Set implements Cache.Set.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "error", err, "key", key)
	}
}

// Close releases the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
