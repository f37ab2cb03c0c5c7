package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const servicesCacheKey = "catalog:services"

// RedisCache stores the ordered service list as one JSON value.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisCache creates a list cache. A zero ttl keeps entries until invalidated.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if client == nil {
		panic("catalog: redis client required")
	}
	return &RedisCache{redis: client, ttl: ttl}
}

// Get returns the cached list and whether it was present.
func (c *RedisCache) Get(ctx context.Context) ([]Service, bool, error) {
	data, err := c.redis.Get(ctx, servicesCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog: cache get: %w", err)
	}
	var services []Service
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, false, fmt.Errorf("catalog: cache decode: %w", err)
	}
	return services, true, nil
}

func (c *RedisCache) Set(ctx context.Context, services []Service) error {
	if services == nil {
		services = []Service{}
	}
	data, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("catalog: cache encode: %w", err)
	}
	if err := c.redis.Set(ctx, servicesCacheKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog: cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Del(ctx, servicesCacheKey).Err(); err != nil {
		return fmt.Errorf("catalog: cache invalidate: %w", err)
	}
	return nil
}
