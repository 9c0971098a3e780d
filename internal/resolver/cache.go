package resolver

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"kidsvideohub/internal/logging"
)

// Cache stores resolved short links in Redis. A Cache with a nil client
// is disabled and every operation is a no-op.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache connects to redisURL. An empty URL or a failed connection yields a
// disabled cache.
func NewCache(redisURL string, ttl time.Duration) *Cache {
	if redisURL == "" {
		logging.Logger.Info().Msg("redis: no URL configured, short-link cache disabled")
		return &Cache{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("redis: invalid URL, short-link cache disabled")
		return &Cache{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logging.Logger.Warn().Err(err).Msg("redis: connection failed, short-link cache disabled")
		rdb.Close()
		return &Cache{}
	}

	logging.Logger.Info().Msg("redis: connected, short-link cache enabled")
	return &Cache{rdb: rdb, ttl: ttl}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Get returns the cached resolution of shortURL
func (c *Cache) Get(ctx context.Context, shortURL string) (string, bool, error) {
	if c == nil || c.rdb == nil {
		return "", false, nil
	}
	val, err := c.rdb.Get(ctx, cacheKey(shortURL)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores the resolution of shortURL
func (c *Cache) Set(ctx context.Context, shortURL, resolved string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, cacheKey(shortURL), resolved, c.ttl).Err()
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func cacheKey(shortURL string) string {
	return "shortlink:" + shortURL
}
