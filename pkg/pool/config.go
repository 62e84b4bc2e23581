package pool

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the fixed construction parameters applied to every per-tenant
// pool. Sizing is process-wide configuration, not a per-call input.
type Config struct {
	MaxConns          int32         `env:"TENANT_POOL_MAX_CONNS" envDefault:"5"`            // MaxConns is the maximum number of connections per tenant pool.
	MinConns          int32         `env:"TENANT_POOL_MIN_CONNS" envDefault:"0"`            // MinConns is the number of idle connections the pool keeps warm.
	MaxConnLifetime   time.Duration `env:"TENANT_POOL_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum amount of time a connection may be reused.
	MaxConnIdleTime   time.Duration `env:"TENANT_POOL_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum amount of time a connection may be idle.
	HealthCheckPeriod time.Duration `env:"TENANT_POOL_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between pool-internal health checks.
	ConnectTimeout    time.Duration `env:"TENANT_POOL_CONNECT_TIMEOUT" envDefault:"5s"`     // ConnectTimeout bounds the dial during pool construction.

	EvictAfter       time.Duration `env:"TENANT_POOL_EVICT_AFTER" envDefault:"0"`         // EvictAfter closes pools unused for this long. Zero disables eviction.
	EvictionInterval time.Duration `env:"TENANT_POOL_EVICTION_INTERVAL" envDefault:"5m"`  // EvictionInterval is how often idle pools are checked for eviction.
}

// Factory constructs a ready-to-use connection pool for a locator.
// The manager calls it at most once per locator per in-flight miss.
type Factory func(ctx context.Context, locator string) (*pgxpool.Pool, error)

// NewFactory returns a Factory that builds pgx pools with the fixed sizing
// from cfg. The returned pool is pinged before it is handed back, so a bad
// locator or unreachable host fails construction instead of poisoning the
// cache with a pool that can never serve.
func NewFactory(cfg Config) Factory {
	return func(ctx context.Context, locator string) (*pgxpool.Pool, error) {
		connConfig, err := pgxpool.ParseConfig(locator)
		if err != nil {
			return nil, errors.Join(ErrInvalidLocator, err)
		}
		connConfig.MaxConns = cfg.MaxConns
		connConfig.MinConns = cfg.MinConns
		connConfig.MaxConnLifetime = cfg.MaxConnLifetime
		connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
		connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
		if cfg.ConnectTimeout > 0 {
			connConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
		}

		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err != nil {
			return nil, errors.Join(ErrFailedToCreatePool, err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, errors.Join(ErrFailedToCreatePool, err)
		}

		return pool, nil
	}
}
