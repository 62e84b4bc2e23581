package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies schema migrations from cfg.MigrationsPath against the given
// pool using goose. Handles the pgx->database/sql conversion required since
// goose doesn't natively support pgx.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log logger) error {
	if cfg.MigrationsPath == "" {
		return errors.Join(ErrFailedToApplyMigrations, ErrMigrationPathNotProvided)
	}

	if _, err := os.Stat(cfg.MigrationsPath); err != nil {
		if os.IsNotExist(err) {
			return errors.Join(ErrMigrationsDirNotFound, err)
		}
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	// Bridge the pgx pool to the database/sql interface goose expects.
	// The wrapper shares the underlying connections.
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close database connection", "error", err)
		}
	}(db)

	// Route goose migration logs through the application logger instead of stdout.
	goose.SetLogger(newSlogAdapter(log))
	goose.SetTableName(cfg.MigrationsTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := goose.UpContext(ctx, db, cfg.MigrationsPath); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return nil
}

// Migrator applies the tenant schema to an arbitrary locator. It is the
// migration-runner collaborator the provisioner invokes after creating a
// tenant database: it opens a short-lived pool against the target locator,
// runs all pending migrations, and tears the pool down again.
type Migrator struct {
	cfg Config
	log logger
}

// NewMigrator creates a Migrator that applies migrations from
// cfg.MigrationsPath, tracking versions in cfg.MigrationsTable.
func NewMigrator(cfg Config, log logger) *Migrator {
	return &Migrator{cfg: cfg, log: log}
}

// Apply runs all pending migrations against the database behind locator.
func (m *Migrator) Apply(ctx context.Context, locator string) error {
	connConfig, err := pgxpool.ParseConfig(locator)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	// Migrations run single-threaded; a minimal pool is enough.
	connConfig.MaxConns = 2
	connConfig.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, connConfig)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	return Migrate(ctx, pool, m.cfg, m.log)
}

// migrateSlogAdapter bridges goose's Printf-style logging to structured logging.
type migrateSlogAdapter struct {
	log logger
}

func newSlogAdapter(log logger) goose.Logger {
	return &migrateSlogAdapter{log: log}
}

func (a *migrateSlogAdapter) Fatalf(format string, v ...any) {
	a.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
}

func (a *migrateSlogAdapter) Printf(format string, v ...any) {
	a.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
}
