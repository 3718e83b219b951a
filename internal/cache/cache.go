package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores computed aggregates per project. Invalidate discards every
// entry of a project at once.
type Cache interface {
	Get(ctx context.Context, projectID, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, projectID, key string, value interface{}) error
	Invalidate(ctx context.Context, projectID string) error
}

// RedisCache keeps JSON-encoded entries in Redis. Each project has a generation
// counter that is part of every entry key; bumping it orphans the old entries,
// which then expire through their TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ Cache = (*RedisCache)(nil)

// NewRedisClient creates a client with the pool settings used by the service
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// NewRedisCache wraps client; entries live for ttl
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "sov"}
}

// Ping tests the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisCache) generationKey(projectID string) string {
	return fmt.Sprintf("%s:%s:gen", c.prefix, projectID)
}

func (c *RedisCache) entryKey(ctx context.Context, projectID, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey(projectID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}
	return fmt.Sprintf("%s:%s:%d:%s", c.prefix, projectID, gen, key), nil
}

// Get decodes the entry into dest and reports whether it was present
func (c *RedisCache) Get(ctx context.Context, projectID, key string, dest interface{}) (bool, error) {
	k, err := c.entryKey(ctx, projectID, key)
	if err != nil {
		return false, err
	}

	val, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", k, err)
	}
	return true, nil
}

// Set stores value under key for the cache TTL
func (c *RedisCache) Set(ctx context.Context, projectID, key string, value interface{}) error {
	k, err := c.entryKey(ctx, projectID, key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.client.Set(ctx, k, data, c.ttl).Err()
}

// Invalidate bumps the project's generation
func (c *RedisCache) Invalidate(ctx context.Context, projectID string) error {
	if err := c.client.Incr(ctx, c.generationKey(projectID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache for %s: %w", projectID, err)
	}
	return nil
}

// Nop is a Cache that never stores anything
type Nop struct{}

var _ Cache = Nop{}

func (Nop) Get(ctx context.Context, projectID, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (Nop) Set(ctx context.Context, projectID, key string, value interface{}) error { return nil }

func (Nop) Invalidate(ctx context.Context, projectID string) error { return nil }
