// Package cache wraps Redis for two jobs: short-TTL caching of expensive
// dashboard aggregates, and the pub/sub changefeed the admin UI listens to.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = redis.Nil

// DashboardStatsKey holds the cached dashboard aggregates. Every write that
// feeds the dashboard must invalidate it.
const DashboardStatsKey = "dashboard:stats"

type Cache struct {
	c *redis.Client
}

func New(addr, password string, db int) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{c: client}
}

// NewFromClient wraps an existing client (used by tests with miniredis).
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{c: client}
}

// Ping verifies the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.c.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.c.Close()
}

// Get unmarshals the cached JSON value at key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.c.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Set marshals value to JSON and stores it under key with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.c.Set(ctx, key, data, ttl).Err()
}

// Del removes keys. Used to invalidate aggregates after a write.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.c.Del(ctx, keys...).Err()
}
