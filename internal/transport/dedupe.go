package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers inbound message ids so redeliveries are dropped.
type Deduper interface {
	// FirstSeen marks id as seen and reports whether it was new.
	FirstSeen(ctx context.Context, id string) (bool, error)
}

const dedupeKeyPrefix = "chat:seen:"

// RedisDeduper records ids with SETNX and a TTL, shared by every instance
// reading the same queue.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if client == nil {
		panic("transport: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	ok, err := d.client.SetNX(ctx, dedupeKeyPrefix+id, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("transport: dedupe %s: %w", id, err)
	}
	return ok, nil
}

// MemoryDeduper is the single-process fallback.
type MemoryDeduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryDeduper{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

func (d *MemoryDeduper) FirstSeen(_ context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if expires, ok := d.seen[id]; ok && now.Before(expires) {
		return false, nil
	}
	for key, expires := range d.seen {
		if !now.Before(expires) {
			delete(d.seen, key)
		}
	}
	d.seen[id] = now.Add(d.ttl)
	return true, nil
}
