package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/turnosbot/turnos/internal/catalog"
	appconfig "github.com/turnosbot/turnos/internal/config"
	"github.com/turnosbot/turnos/internal/transport"
	"github.com/turnosbot/turnos/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildServiceCache returns the Redis list cache for the catalog, or nil
// when Redis is not configured.
func BuildServiceCache(redisClient *redis.Client, cfg *appconfig.Config) catalog.ListCache {
	if redisClient == nil || cfg == nil || cfg.ServiceCacheTTL <= 0 {
		return nil
	}
	return catalog.NewRedisCache(redisClient, cfg.ServiceCacheTTL)
}

// BuildDeduper prefers Redis so redeliveries are caught across replicas.
func BuildDeduper(redisClient *redis.Client, cfg *appconfig.Config) transport.Deduper {
	ttl := cfg.DedupeTTL
	if redisClient != nil {
		return transport.NewRedisDeduper(redisClient, ttl)
	}
	return transport.NewMemoryDeduper(ttl)
}
