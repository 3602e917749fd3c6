package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const generationKey = "registry:cache:gen"

// Cache is an optional Redis read cache for query results. Keys carry a
// generation counter; bumping the generation after a reconciliation run
// invalidates every cached lookup at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and returns a Cache handle
func New(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Generation returns the current cache generation
func (c *Cache) Generation(ctx context.Context) int64 {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// BumpGeneration advances the cache generation, invalidating all keys
// built against earlier generations.
func (c *Cache) BumpGeneration(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

// Get returns the cached value for key, if any
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a value under key with the configured TTL
func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	c.client.Set(ctx, key, value, c.ttl)
}
