package storage

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"photosense-backend/internal/config"
)

// Cache is an optional redis-backed cache of pipeline stage outputs keyed by
// image content, so re-uploading the same photo skips inference. A nil *Cache
// is valid and means caching is disabled.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns nil when no redis address is configured.
func NewCache(cfg config.RedisConfig) *Cache {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Cache{
		client: client,
		ttl:    cfg.CacheDuration,
	}
}

// Get returns the cached payload or nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (c *Cache) Set(ctx context.Context, key string, data []byte) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Ping reports whether the cache backend is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// CacheKey derives the content-addressed cache key for an upload.
func CacheKey(data []byte) string {
	return fmt.Sprintf("analysis:%x", sha256.Sum256(data))
}
