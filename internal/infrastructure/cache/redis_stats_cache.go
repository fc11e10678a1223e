// Package cache provides the Redis-backed report cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/procurehub/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RedisStatsCache caches serialized report payloads in Redis. A missing key
// is a cache miss, not an error.
type RedisStatsCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStatsCache creates a new Redis-backed stats cache and verifies the
// connection
func NewRedisStatsCache(cfg config.RedisConfig) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStatsCache{
		client:    client,
		keyPrefix: "recon:",
	}, nil
}

// NewRedisStatsCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisStatsCacheWithClient(client *redis.Client, keyPrefix string) *RedisStatsCache {
	if keyPrefix == "" {
		keyPrefix = "recon:"
	}
	return &RedisStatsCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached payload for a key, or (nil, nil) on a miss
func (c *RedisStatsCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return data, nil
}

// Set stores a payload under a key with the given TTL
func (c *RedisStatsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}
