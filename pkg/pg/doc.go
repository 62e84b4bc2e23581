// Package pg provides the PostgreSQL plumbing shared by the tenant registry
// and the provisioner: central-store connection with retry, goose-backed
// schema migrations, health checks, and error classification helpers.
//
// Connect opens the pool against the central registry database described by
// Config. Migrator applies the tenant schema to an arbitrary locator and is
// the migration-runner collaborator invoked during provisioning.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	registry, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer registry.Close()
//
//	migrator := pg.NewMigrator(cfg, slog.Default())
//
// # Error Handling
//
// Helpers such as [IsDuplicateKeyError] and [IsInvalidCatalogNameError]
// unwrap *pgconn.PgError values so that callers can classify store-level
// outcomes (subdomain already taken, locator pointing at a missing database)
// without string matching.
package pg
