package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/pool"
)

// ConnPool is the subset of a pgx pool the router draws sessions from.
// *pgxpool.Pool satisfies it.
type ConnPool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// Pools resolves a locator to its shared, ready-to-use connection pool.
type Pools interface {
	Acquire(ctx context.Context, locator string) (ConnPool, error)
}

// ManagerPools adapts a *pool.Manager to the Pools interface.
func ManagerPools(m *pool.Manager) Pools {
	return managerPools{m}
}

type managerPools struct {
	mgr *pool.Manager
}

func (p managerPools) Acquire(ctx context.Context, locator string) (ConnPool, error) {
	pl, err := p.mgr.Acquire(ctx, locator)
	if err != nil {
		return nil, err
	}
	return pl, nil
}

// Session is a borrowed tenant-scoped connection issued to exactly one
// request. Release returns the connection to its pool; it never closes the
// underlying socket and is safe to call more than once.
type Session struct {
	tenant  *Tenant
	conn    *pgxpool.Conn
	release sync.Once
}

// Tenant returns the record the session is bound to.
func (s *Session) Tenant() *Tenant {
	return s.tenant
}

// Conn returns the borrowed connection for issuing queries.
func (s *Session) Conn() *pgxpool.Conn {
	return s.conn
}

// Release returns the connection to the pool. Idempotent.
func (s *Session) Release() {
	s.release.Do(func() {
		if s.conn != nil {
			s.conn.Release()
		}
	})
}

// Router orchestrates Resolver → Registry → Pools to produce a tenant-scoped
// session for a single request. It holds no long-term state of its own; the
// only shared mutable resource is the pool cache behind Pools.
type Router struct {
	resolver Resolver
	registry Registry
	pools    Pools
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithCache enables a bounded-staleness read cache for tenant records.
// The TTL bounds how long a status transition may go unobserved.
func WithCache(cache Cache, ttl time.Duration) RouterOption {
	return func(rt *Router) {
		if cache != nil && ttl > 0 {
			rt.cache = cache
			rt.cacheTTL = ttl
		}
	}
}

// WithRouterLogger sets the logger for resolution events.
func WithRouterLogger(log *slog.Logger) RouterOption {
	return func(rt *Router) {
		if log != nil {
			rt.log = log
		}
	}
}

// NewRouter creates the composition point request handlers depend on.
// Without WithCache every lookup reads the registry, so status changes are
// visible immediately.
func NewRouter(resolver Resolver, registry Registry, pools Pools, opts ...RouterOption) *Router {
	rt := &Router{
		resolver: resolver,
		registry: registry,
		pools:    pools,
		cache:    NewNoOpCache(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// ResolveTenant maps a raw host header to a servable tenant record.
//
// Failure taxonomy:
//   - ErrNoSubdomain: host carries no tenant key (client's malformed host)
//   - ErrTenantNotFound: subdomain has no registry record
//   - ErrTenantInactive: record exists but is not servable
func (rt *Router) ResolveTenant(ctx context.Context, host string) (*Tenant, error) {
	key := rt.resolver(host)
	if key == "" {
		return nil, ErrNoSubdomain
	}

	t, cached := rt.cache.Get(ctx, key)
	if !cached {
		var err error
		t, err = rt.registry.GetBySubdomain(ctx, key)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, key)
			}
			return nil, err
		}
		// The true record is cached regardless of status; policy is applied
		// below on every request, so a paused tenant stays rejected even on
		// cache hits.
		rt.cache.Set(ctx, key, t, rt.cacheTTL)
	}

	if !t.Servable() {
		rt.log.WarnContext(ctx, "inactive tenant rejected",
			slog.String("subdomain", key), slog.String("status", string(t.Status)))
		return nil, fmt.Errorf("%w: %s", ErrTenantInactive, key)
	}

	return t, nil
}

// SessionFor draws one scoped connection for an already-resolved tenant.
// Pool construction and connection acquisition failures are both reported as
// ErrDatabaseUnavailable: transient, retryable conditions.
func (rt *Router) SessionFor(ctx context.Context, t *Tenant) (*Session, error) {
	p, err := rt.pools.Acquire(ctx, t.Locator)
	if err != nil {
		return nil, errors.Join(ErrDatabaseUnavailable, err)
	}

	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(ErrDatabaseUnavailable, err)
	}

	return &Session{tenant: t, conn: conn}, nil
}

// ResolveSession resolves the host header all the way to a ready-to-use
// tenant-scoped session. The caller owns the session and must Release it;
// prefer WithSession unless the session outlives a single function.
func (rt *Router) ResolveSession(ctx context.Context, host string) (*Session, error) {
	t, err := rt.ResolveTenant(ctx, host)
	if err != nil {
		return nil, err
	}
	return rt.SessionFor(ctx, t)
}

// WithSession runs fn with a tenant-scoped session and releases it on every
// exit path, including panics. The tenant is also injected into fn's context.
func (rt *Router) WithSession(ctx context.Context, host string, fn func(ctx context.Context, s *Session) error) error {
	s, err := rt.ResolveSession(ctx, host)
	if err != nil {
		return err
	}
	defer s.Release()

	return fn(WithTenant(ctx, s.Tenant()), s)
}
