package transport

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDeduperFirstSeen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	d := NewRedisDeduper(client, time.Minute)
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, again)

	assert.True(t, mr.Exists(dedupeKeyPrefix+"msg-1"))
	assert.Equal(t, time.Minute, mr.TTL(dedupeKeyPrefix+"msg-1"))

	mr.FastForward(2 * time.Minute)
	expired, err := d.FirstSeen(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestRedisDeduperEmptyIDAlwaysNew(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	d := NewRedisDeduper(client, time.Minute)
	for i := 0; i < 2; i++ {
		first, err := d.FirstSeen(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, first)
	}
	assert.Empty(t, mr.Keys())
}

func TestRedisDeduperOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisDeduper(client, time.Minute).FirstSeen(context.Background(), "msg-1")
	assert.Error(t, err)
}

func TestMemoryDeduperExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	d := NewMemoryDeduper(time.Minute)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	first, _ := d.FirstSeen(ctx, "a")
	again, _ := d.FirstSeen(ctx, "a")
	other, _ := d.FirstSeen(ctx, "b")
	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, other)

	now = now.Add(time.Minute)
	expired, _ := d.FirstSeen(ctx, "a")
	assert.True(t, expired)
	assert.Len(t, d.seen, 1)
}
