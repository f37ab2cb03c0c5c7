package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnosbot/turnos/pkg/logging"
)

type countingStore struct {
	*MemoryStore
	lists int
}

func (c *countingStore) ListServices(ctx context.Context) ([]Service, error) {
	c.lists++
	return c.MemoryStore.ListServices(ctx)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func TestCatalogListUsesCache(t *testing.T) {
	_, client := newRedis(t)
	store := &countingStore{MemoryStore: NewMemoryStore(
		CreateServiceRequest{Name: "Corte clásico", DurationMinutes: intPtr(30), Price: floatPtr(2500)},
		CreateServiceRequest{Name: "Barba"},
	)}
	cat := NewCatalog(store, NewRedisCache(client, time.Minute), logging.Default())
	ctx := context.Background()

	first, err := cat.List(ctx)
	require.NoError(t, err)
	second, err := cat.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, store.lists)
	require.Len(t, second, 2)
	assert.Equal(t, "Barba", second[0].Name)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.Equal(t, 30, *second[1].DurationMinutes)
}

func TestCatalogCreateInvalidatesCache(t *testing.T) {
	mr, client := newRedis(t)
	store := &countingStore{MemoryStore: NewMemoryStore()}
	cat := NewCatalog(store, NewRedisCache(client, time.Minute), nil)
	ctx := context.Background()

	_, err := cat.List(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(servicesCacheKey))

	_, err = cat.Create(ctx, CreateServiceRequest{Name: "  Color  "})
	require.NoError(t, err)
	assert.False(t, mr.Exists(servicesCacheKey))

	list, err := cat.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Color", list[0].Name)
	assert.Equal(t, 2, store.lists)
}

func TestCatalogCacheOutageFallsBackToStore(t *testing.T) {
	mr, client := newRedis(t)
	store := NewMemoryStore(CreateServiceRequest{Name: "Corte"})
	cat := NewCatalog(store, NewRedisCache(client, time.Minute), nil)
	mr.Close()

	list, err := cat.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalogCacheTTL(t *testing.T) {
	mr, client := newRedis(t)
	cat := NewCatalog(NewMemoryStore(), NewRedisCache(client, time.Minute), nil)

	_, err := cat.List(context.Background())
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(servicesCacheKey))
}

func TestFindByNameCaseInsensitive(t *testing.T) {
	cat := NewCatalog(NewMemoryStore(CreateServiceRequest{Name: "Corte clásico"}), nil, nil)
	ctx := context.Background()

	svc, err := cat.FindByName(ctx, "  CORTE CLÁSICO ")
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "Corte clásico", svc.Name)

	svc, err = cat.FindByName(ctx, "Corte")
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = cat.FindByName(ctx, "   ")
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateValidation(t *testing.T) {
	cat := NewCatalog(NewMemoryStore(CreateServiceRequest{Name: "Corte"}), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateServiceRequest
		want error
	}{
		{"blank name", CreateServiceRequest{Name: "  "}, ErrInvalidService},
		{"zero duration", CreateServiceRequest{Name: "A", DurationMinutes: intPtr(0)}, ErrInvalidService},
		{"negative price", CreateServiceRequest{Name: "A", Price: floatPtr(-1)}, ErrInvalidService},
		{"duplicate name", CreateServiceRequest{Name: "corte"}, ErrDuplicateService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cat.Create(ctx, tt.req)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCreateDropsBlankDescription(t *testing.T) {
	cat := NewCatalog(NewMemoryStore(), nil, nil)
	svc, err := cat.Create(context.Background(), CreateServiceRequest{Name: "Corte", Description: stringPtr("   ")})
	require.NoError(t, err)
	assert.Nil(t, svc.Description)
}
