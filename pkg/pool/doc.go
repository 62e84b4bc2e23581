// Package pool caches one live connection pool per tenant database locator.
//
// The Manager is the shared mutable heart of the routing core: the first
// request for a locator constructs its pool, every later request for the same
// locator reuses it, and pools die only on explicit shutdown or idle
// eviction. The central guarantee is at-most-one construction per distinct
// locator under arbitrary concurrent first-access races, provided by a
// read-locked fast path plus singleflight-deduplicated construction.
//
// Construction failures (bad locator, unreachable host) are surfaced to the
// callers of the losing flight and leave no entry behind, so a later request
// retries from scratch. The cache never retries on its own.
//
//	mgr := pool.NewManager(pool.NewFactory(cfg),
//		pool.WithLogger(log),
//		pool.WithIdleEviction(30*time.Minute, 5*time.Minute),
//	)
//	defer mgr.Shutdown()
//
//	p, err := mgr.Acquire(ctx, tenant.Locator)
package pool
