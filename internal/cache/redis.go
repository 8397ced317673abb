package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tastefeed/server/pkg/config"
	"github.com/tastefeed/server/pkg/logging"
)

const keyPrefix = "tastefeed:"

// ErrCacheDisabled is returned when cache operations are attempted but cache is disabled
var ErrCacheDisabled = errors.New("cache is disabled")

// Cache wraps Redis client. A nil *Cache is valid and behaves as disabled.
type Cache struct {
	client redis.UniversalClient
}

// New creates a new Redis cache client, nil when Redis is not configured
func New(cfg *config.RedisConfig) (*Cache, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &Cache{client: client}, nil
}

func (c *Cache) namespaceKey(key string) string {
	return keyPrefix + key
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// HIncrBy adds delta to a field of a hash
func (c *Cache) HIncrBy(ctx context.Context, key, field string, delta int64) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.HIncrBy(ctx, c.namespaceKey(key), field, delta).Err()
}

// DrainHash reads and deletes a hash in one MULTI/EXEC transaction, so an
// increment lands either in the returned values or in the next drain.
// A missing hash yields an empty map.
func (c *Cache) DrainHash(ctx context.Context, key string) (map[string]string, error) {
	if !c.enabled() {
		return nil, ErrCacheDisabled
	}
	k := c.namespaceKey(key)

	var values *redis.StringStringMapCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		values = pipe.HGetAll(ctx, k)
		pipe.Del(ctx, k)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain %s: %w", key, err)
	}
	return values.Val(), nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}

// Health checks Redis health
func (c *Cache) Health(ctx context.Context) error {
	if !c.enabled() {
		return ErrCacheDisabled
	}
	return c.client.Ping(ctx).Err()
}
