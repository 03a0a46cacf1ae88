package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sumcache/internal/fingerprint"
)

const (
	// DefaultRedisKeyPrefix is prepended to every fingerprint key.
	DefaultRedisKeyPrefix = "sumcache:record:"

	// DefaultRedisTTL bounds how long an entry occupies Redis memory (24 hours).
	DefaultRedisTTL = 24 * time.Hour
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// KeyPrefix namespaces record keys (defaults to "sumcache:record:")
	KeyPrefix string

	// TTL is the time-to-live for cached entries (defaults to 24 hours)
	TTL time.Duration
}

// RedisCache implements Cache using Redis, shared by every instance behind a load balancer.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a new Redis-based cache and verifies the connection.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := newRedisCache(client, cfg)
	slog.Info("redis cache connected", "prefix", c.prefix, "ttl", c.ttl)
	return c, nil
}

func newRedisCache(client *redis.Client, cfg RedisConfig) *RedisCache {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(fp fingerprint.Fingerprint) string {
	return c.prefix + fp.String()
}

// Get retrieves a cached result.
func (c *RedisCache) Get(ctx context.Context, fp fingerprint.Fingerprint) (int64, bool, error) {
	raw, err := c.client.Get(ctx, c.key(fp)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get %s from redis: %w", fp, err)
	}

	result, err := decodeResult(raw)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse cached result for %s: %w", fp, err)
	}
	return result, true, nil
}

// Set stores a committed result with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, fp fingerprint.Fingerprint, result int64) error {
	if err := c.client.Set(ctx, c.key(fp), encodeResult(result), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", fp, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
