package tenant_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

type fakeRegistry struct {
	mu      sync.Mutex
	records map[string]*tenant.Tenant
	lookups atomic.Int32
	err     error
}

func newFakeRegistry(records ...*tenant.Tenant) *fakeRegistry {
	r := &fakeRegistry{records: make(map[string]*tenant.Tenant)}
	for _, rec := range records {
		r.records[rec.Subdomain] = rec
	}
	return r
}

func (r *fakeRegistry) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	r.lookups.Add(1)
	if r.err != nil {
		return nil, r.err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[subdomain]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return rec, nil
}

func (r *fakeRegistry) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (r *fakeRegistry) List(ctx context.Context, offset, limit int) ([]tenant.Tenant, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]tenant.Tenant, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (r *fakeRegistry) Create(ctx context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[t.Subdomain]; exists {
		return tenant.ErrSubdomainTaken
	}
	r.records[t.Subdomain] = t
	return nil
}

func (r *fakeRegistry) UpdateStatus(ctx context.Context, id uuid.UUID, status tenant.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			rec.Status = status
			return nil
		}
	}
	return tenant.ErrTenantNotFound
}

type fakePool struct {
	acquires atomic.Int32
}

func (p *fakePool) Acquire(ctx context.Context) (*pgxpool.Conn, error) {
	p.acquires.Add(1)
	return nil, nil
}

type fakePools struct {
	mu       sync.Mutex
	pools    map[string]*fakePool
	locators []string
	err      error
}

func newFakePools() *fakePools {
	return &fakePools{pools: make(map[string]*fakePool)}
}

func (f *fakePools) Acquire(ctx context.Context, locator string) (tenant.ConnPool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	f.locators = append(f.locators, locator)
	p, ok := f.pools[locator]
	if !ok {
		p = &fakePool{}
		f.pools[locator] = p
	}
	return p, nil
}

func newTestRouter(registry tenant.Registry, pools tenant.Pools, opts ...tenant.RouterOption) *tenant.Router {
	return tenant.NewRouter(tenant.NewSubdomainResolver("ejemplo.com"), registry, pools, opts...)
}

func TestRouter_ResolveSession_ActiveTenant(t *testing.T) {
	t.Parallel()

	rec := newTestTenant("acme")
	pools := newFakePools()
	router := newTestRouter(newFakeRegistry(rec), pools)

	s, err := router.ResolveSession(context.Background(), "acme.ejemplo.com")
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, rec, s.Tenant())

	// The session comes from the pool keyed by the tenant's locator.
	require.Equal(t, []string{rec.Locator}, pools.locators)
	assert.Equal(t, int32(1), pools.pools[rec.Locator].acquires.Load())
}

func TestRouter_ResolveSession_NoSubdomain(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeRegistry(), newFakePools())

	_, err := router.ResolveSession(context.Background(), "ejemplo.com")
	assert.ErrorIs(t, err, tenant.ErrNoSubdomain)
}

func TestRouter_ResolveSession_TenantNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeRegistry(), newFakePools())

	_, err := router.ResolveSession(context.Background(), "ghost.ejemplo.com")
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
	assert.NotErrorIs(t, err, tenant.ErrNoSubdomain)
}

func TestRouter_ResolveSession_PausedTenant(t *testing.T) {
	t.Parallel()

	rec := newTestTenant("acme")
	rec.Status = tenant.StatusPaused

	registry := newFakeRegistry(rec)
	pools := newFakePools()
	router := newTestRouter(registry, pools)

	_, err := router.ResolveSession(context.Background(), "acme.ejemplo.com")
	assert.ErrorIs(t, err, tenant.ErrTenantInactive)

	// The registry still reports the true record; only the router rejects it.
	got, lookupErr := registry.GetBySubdomain(context.Background(), "acme")
	require.NoError(t, lookupErr)
	assert.Equal(t, tenant.StatusPaused, got.Status)

	// No pool was ever touched for an unservable tenant.
	assert.Empty(t, pools.locators)
}

func TestRouter_ResolveSession_PoolUnavailable(t *testing.T) {
	t.Parallel()

	pools := newFakePools()
	pools.err = errors.New("connection refused")
	router := newTestRouter(newFakeRegistry(newTestTenant("acme")), pools)

	_, err := router.ResolveSession(context.Background(), "acme.ejemplo.com")
	assert.ErrorIs(t, err, tenant.ErrDatabaseUnavailable)
}

func TestRouter_RegistryFaultPropagates(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry()
	registry.err = errors.New("registry timeout")
	router := newTestRouter(registry, newFakePools())

	_, err := router.ResolveTenant(context.Background(), "acme.ejemplo.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestRouter_SharedLocatorSharesPool(t *testing.T) {
	t.Parallel()

	// Two records pointing at the same locator degrade gracefully into one pool.
	first := newTestTenant("acme")
	second := newTestTenant("beta")
	second.Locator = first.Locator

	pools := newFakePools()
	router := newTestRouter(newFakeRegistry(first, second), pools)

	s1, err := router.ResolveSession(context.Background(), "acme.ejemplo.com")
	require.NoError(t, err)
	defer s1.Release()

	s2, err := router.ResolveSession(context.Background(), "beta.ejemplo.com")
	require.NoError(t, err)
	defer s2.Release()

	assert.Len(t, pools.pools, 1)
}

func TestRouter_CachedLookup(t *testing.T) {
	t.Parallel()

	rec := newTestTenant("acme")
	registry := newFakeRegistry(rec)
	cache := tenant.NewInMemoryCache()
	defer cache.Close()

	router := newTestRouter(registry, newFakePools(),
		tenant.WithCache(cache, time.Minute))

	for range 5 {
		_, err := router.ResolveTenant(context.Background(), "acme.ejemplo.com")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), registry.lookups.Load())
}

func TestRouter_CachedPausedTenantStillRejected(t *testing.T) {
	t.Parallel()

	rec := newTestTenant("acme")
	registry := newFakeRegistry(rec)
	cache := tenant.NewInMemoryCache()
	defer cache.Close()

	router := newTestRouter(registry, newFakePools(),
		tenant.WithCache(cache, time.Minute))

	// Warm the cache while the tenant is active.
	_, err := router.ResolveTenant(context.Background(), "acme.ejemplo.com")
	require.NoError(t, err)

	// The servable check runs per request, so pausing the shared record is
	// rejected even while the cache entry is fresh.
	rec.Status = tenant.StatusPaused

	_, err = router.ResolveTenant(context.Background(), "acme.ejemplo.com")
	assert.ErrorIs(t, err, tenant.ErrTenantInactive)
}

func TestRouter_WithSession(t *testing.T) {
	t.Parallel()

	rec := newTestTenant("acme")
	router := newTestRouter(newFakeRegistry(rec), newFakePools())

	var seen *tenant.Tenant
	err := router.WithSession(context.Background(), "acme.ejemplo.com",
		func(ctx context.Context, s *tenant.Session) error {
			seen = s.Tenant()

			// The tenant is injected into the callback context.
			fromCtx, ok := tenant.FromContext(ctx)
			require.True(t, ok)
			assert.Equal(t, rec, fromCtx)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, rec, seen)
}

func TestRouter_WithSession_PropagatesErrors(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeRegistry(newTestTenant("acme")), newFakePools())

	business := errors.New("business failure")
	err := router.WithSession(context.Background(), "acme.ejemplo.com",
		func(ctx context.Context, s *tenant.Session) error {
			return business
		})
	assert.ErrorIs(t, err, business)

	err = router.WithSession(context.Background(), "ghost.ejemplo.com",
		func(ctx context.Context, s *tenant.Session) error {
			t.Fatal("callback must not run when resolution fails")
			return nil
		})
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestRouter_WithSession_PanicStillPropagates(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeRegistry(newTestTenant("acme")), newFakePools())

	assert.Panics(t, func() {
		_ = router.WithSession(context.Background(), "acme.ejemplo.com",
			func(ctx context.Context, s *tenant.Session) error {
				panic("handler exploded")
			})
	})
}

func TestSession_ReleaseIdempotent(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeRegistry(newTestTenant("acme")), newFakePools())

	s, err := router.ResolveSession(context.Background(), "acme.ejemplo.com")
	require.NoError(t, err)

	s.Release()
	s.Release()
}

func TestRouter_ConcurrentResolution(t *testing.T) {
	t.Parallel()

	rec := newTestTenant("acme")
	router := newTestRouter(newFakeRegistry(rec), newFakePools())

	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for range numGoroutines {
		go func() {
			defer wg.Done()
			s, err := router.ResolveSession(context.Background(), "acme.ejemplo.com")
			assert.NoError(t, err)
			if s != nil {
				s.Release()
			}
		}()
	}

	wg.Wait()
}
