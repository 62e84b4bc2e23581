// Package tenant routes incoming requests to isolated per-tenant databases,
// selecting the target database from the HTTP host header.
//
// # Architecture
//
// The package is built around four cooperating pieces:
//
//  1. Resolver — pure function mapping a host header to a candidate tenant key
//  2. Registry — client for the central store of tenant records
//  3. Pools — cache of live per-locator connection pools (pkg/pool behind an
//     adapter)
//  4. Router — the composition point producing a tenant-scoped Session per
//     request
//
// # Usage
//
//	registry := tenant.NewPostgresRegistry(centralPool)
//	mgr := pool.NewManager(pool.NewFactory(poolCfg))
//	defer mgr.Shutdown()
//
//	router := tenant.NewRouter(
//		tenant.NewSubdomainResolver("ejemplo.com"),
//		registry,
//		tenant.ManagerPools(mgr),
//		tenant.WithCache(tenant.NewInMemoryCache(), 5*time.Minute),
//	)
//
//	// Inside a request handler:
//	err := router.WithSession(ctx, r.Host, func(ctx context.Context, s *tenant.Session) error {
//		rows, err := s.Conn().Query(ctx, "SELECT ...")
//		...
//	})
//
// For HTTP stacks, Middleware resolves the record once per request and stores
// it in the context; RequireTenant guards tenant-only routes.
//
// # Error Handling
//
// Resolution outcomes are ordinary, discriminable values, not faults:
//
//   - ErrNoSubdomain: the host carries no tenant key (HTTP 400)
//   - ErrTenantNotFound: no record for the subdomain (HTTP 404)
//   - ErrTenantInactive: record exists but is paused/suspended (HTTP 403)
//   - ErrDatabaseUnavailable: pool construction or acquisition failed
//     (HTTP 503, retryable)
//
// Only infrastructure faults propagate as wrapped errors through the pool
// layer.
//
// # Caching
//
// The Router reads the registry on every request unless WithCache is set.
// The cache TTL is a hard staleness bound for status transitions; records are
// cached with their true status and the servable check runs per request, so a
// cached paused tenant is still rejected.
package tenant
