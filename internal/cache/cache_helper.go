// Package cache wraps Redis for JSON caching, token revocation and live exam sessions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheHelper provides JSON get/set under a key prefix.
type CacheHelper struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewCacheHelper creates a helper. A nil client degrades to a no-op cache.
func NewCacheHelper(client *redis.Client, prefix string, logger *zap.Logger) *CacheHelper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheHelper{client: client, prefix: prefix, logger: logger}
}

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return c.prefix + key
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest any) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}
	data, err := c.client.Get(ctx, c.GetCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal: %w", err)
	}
	return nil
}

// Set marshals and stores data in cache
func (c *CacheHelper) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return c.client.Set(ctx, c.GetCacheKey(key), data, ttl).Err()
}

// Delete removes keys; failures are logged, never returned.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) {
	if c.client == nil || len(keys) == 0 {
		return
	}
	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}
	if err := c.client.Del(ctx, cacheKeys...).Err(); err != nil {
		c.logger.Warn("cache delete failed", zap.Strings("keys", cacheKeys), zap.Error(err))
	}
}

// CacheOrExecute serves key from cache, or runs fetch and stores its result.
// Cache failures fall through to fetch.
func CacheOrExecute[T any](ctx context.Context, c *CacheHelper, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		c.logger.Warn("cache read failed, fetching", zap.String("key", key), zap.Error(err))
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
