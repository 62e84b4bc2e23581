package tenant_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func newTestTenant(subdomain string) *tenant.Tenant {
	return &tenant.Tenant{
		ID:        uuid.New(),
		Name:      subdomain,
		Subdomain: subdomain,
		DBName:    "tenant_" + subdomain,
		Locator:   "postgres://localhost/tenant_" + subdomain,
		Status:    tenant.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
}

func TestInMemoryCache_SetGet(t *testing.T) {
	t.Parallel()

	cache := tenant.NewInMemoryCache()
	defer cache.Close()

	ctx := context.Background()
	rec := newTestTenant("acme")

	cache.Set(ctx, "acme", rec, time.Minute)

	got, ok := cache.Get(ctx, "acme")
	require.True(t, ok)
	assert.Equal(t, rec, got)

	_, ok = cache.Get(ctx, "ghost")
	assert.False(t, ok)
}

func TestInMemoryCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	cache := tenant.NewInMemoryCache()
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "acme", newTestTenant("acme"), 30*time.Millisecond)

	_, ok := cache.Get(ctx, "acme")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := cache.Get(ctx, "acme")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestInMemoryCache_Delete(t *testing.T) {
	t.Parallel()

	cache := tenant.NewInMemoryCache()
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "acme", newTestTenant("acme"), time.Minute)
	cache.Delete(ctx, "acme")

	_, ok := cache.Get(ctx, "acme")
	assert.False(t, ok)
}

func TestInMemoryCache_LRUEviction(t *testing.T) {
	t.Parallel()

	cache := tenant.NewInMemoryCacheWithSize(2)
	defer cache.Close()

	ctx := context.Background()
	cache.Set(ctx, "a", newTestTenant("a"), time.Minute)
	cache.Set(ctx, "b", newTestTenant("b"), time.Minute)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := cache.Get(ctx, "a")
	require.True(t, ok)

	cache.Set(ctx, "c", newTestTenant("c"), time.Minute)

	_, ok = cache.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = cache.Get(ctx, "c")
	assert.True(t, ok)
}

func TestInMemoryCache_CloseIdempotent(t *testing.T) {
	t.Parallel()

	cache := tenant.NewInMemoryCache()
	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close())
}

func TestInMemoryCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	cache := tenant.NewInMemoryCacheWithSize(128)
	defer cache.Close()

	ctx := context.Background()

	const numGoroutines = 50
	const numOperations = 200

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := range numGoroutines {
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("tenant-%d", i%8)
			for range numOperations {
				cache.Set(ctx, key, newTestTenant(key), time.Minute)
				cache.Get(ctx, key)
				if i%3 == 0 {
					cache.Delete(ctx, key)
				}
			}
		}(i)
	}

	wg.Wait()
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	cache := tenant.NewNoOpCache()
	ctx := context.Background()

	cache.Set(ctx, "acme", newTestTenant("acme"), time.Minute)
	_, ok := cache.Get(ctx, "acme")
	assert.False(t, ok)

	cache.Delete(ctx, "acme")
	assert.NoError(t, cache.Close())
}
