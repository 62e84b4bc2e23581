package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

// subdomainPattern matches lowercase labels of letters, digits and inner
// hyphens, the same shape the registry stores.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// reservedSubdomains can never be claimed by a tenant.
var reservedSubdomains = map[string]struct{}{
	"www":       {},
	"api":       {},
	"admin":     {},
	"app":       {},
	"mail":      {},
	"ftp":       {},
	"localhost": {},
}

const (
	minSubdomainLength = 3
	maxSubdomainLength = 63
)

// Migrator applies all pending schema changes to the database behind a
// locator. Synchronous from the provisioner's point of view.
type Migrator interface {
	Apply(ctx context.Context, locator string) error
}

// Seeder creates the initial administrative user inside a fresh tenant database.
type Seeder interface {
	Seed(ctx context.Context, locator string, admin AdminUser) error
}

// AdminUser is the initial account seeded into a new tenant database.
type AdminUser struct {
	ID       uuid.UUID
	Email    string
	Password string
}

// adminExec is the slice of the central/administrative pool the provisioner
// needs: the ability to issue CREATE DATABASE. *pgxpool.Pool satisfies it.
type adminExec interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Config controls how locators for new tenant databases are derived.
type Config struct {
	// LocatorTemplate is an fmt template with one %s verb for the database
	// name, e.g. "postgres://tenant:secret@db:5432/%s?sslmode=disable".
	LocatorTemplate string `env:"TENANT_LOCATOR_TEMPLATE,required"`

	// DBNamePrefix is prepended to the subdomain to form the physical
	// database name.
	DBNamePrefix string `env:"TENANT_DB_NAME_PREFIX" envDefault:"tenant_"`
}

// Request describes one tenant to provision.
type Request struct {
	Name          string
	Subdomain     string
	AdminEmail    string
	AdminPassword string
}

// Provisioner runs the multi-step workflow that creates a new tenant.
//
// Step order is the whole point: database creation, migrations and seeding
// all complete before the registry row is written, so every tenant the
// Router can resolve has a fully migrated, seeded database. The workflow is
// terminal on first failure and never rolls back completed steps; the
// returned error names the halting step for the operator.
type Provisioner struct {
	admin    adminExec
	registry tenant.Registry
	migrator Migrator
	seeder   Seeder
	cfg      Config
	log      *slog.Logger
}

// Option configures the provisioner.
type Option func(*Provisioner)

// WithLogger sets the logger for workflow progress events.
func WithLogger(log *slog.Logger) Option {
	return func(p *Provisioner) {
		if log != nil {
			p.log = log
		}
	}
}

// WithSeeder overrides the default pgx seeder.
func WithSeeder(s Seeder) Option {
	return func(p *Provisioner) {
		if s != nil {
			p.seeder = s
		}
	}
}

// New creates a Provisioner. admin must be a pool connected with database
// creation privileges; registry is the central tenant store; migrator applies
// the tenant schema to new databases.
func New(admin adminExec, registry tenant.Registry, migrator Migrator, cfg Config, opts ...Option) (*Provisioner, error) {
	if !strings.Contains(cfg.LocatorTemplate, "%s") {
		return nil, fmt.Errorf("locator template %q has no %%s verb for the database name", cfg.LocatorTemplate)
	}

	p := &Provisioner{
		admin:    admin,
		registry: registry,
		migrator: migrator,
		seeder:   &pgxSeeder{},
		cfg:      cfg,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Provision creates a new tenant end to end. On success the tenant is
// immediately resolvable by the Router. On failure the returned error wraps
// the halting Step; depending on the step a created-but-unregistered database
// may remain behind, never resolvable, awaiting operator cleanup.
func (p *Provisioner) Provision(ctx context.Context, req Request) (*tenant.Tenant, error) {
	sub, err := p.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	dbName := p.cfg.DBNamePrefix + strings.ReplaceAll(sub, "-", "_")
	locator := fmt.Sprintf(p.cfg.LocatorTemplate, dbName)

	log := p.log.With(slog.String("subdomain", sub), slog.String("db_name", dbName))

	// CREATE DATABASE cannot run inside a transaction and cannot be
	// parameterized; the identifier is quoted instead.
	if _, err := p.admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		log.ErrorContext(ctx, "database creation failed", slog.Any("error", err))
		return nil, failedAt(StepCreateDatabase, err)
	}
	log.InfoContext(ctx, "tenant database created")

	if err := p.migrator.Apply(ctx, locator); err != nil {
		log.ErrorContext(ctx, "tenant migrations failed", slog.Any("error", err))
		return nil, failedAt(StepMigrate, err)
	}
	log.InfoContext(ctx, "tenant migrations applied")

	admin := AdminUser{ID: uuid.New(), Email: req.AdminEmail, Password: req.AdminPassword}
	if err := p.seeder.Seed(ctx, locator, admin); err != nil {
		log.ErrorContext(ctx, "admin seeding failed", slog.Any("error", err))
		return nil, failedAt(StepSeed, err)
	}

	t := &tenant.Tenant{
		ID:          id,
		Name:        req.Name,
		Subdomain:   sub,
		DBName:      dbName,
		Locator:     locator,
		Status:      tenant.StatusActive,
		AdminUserID: uuid.NullUUID{UUID: admin.ID, Valid: true},
		CreatedAt:   time.Now().UTC(),
	}

	// Last step on purpose: the tenant becomes resolvable only once the
	// database behind it is fully ready. The store-level uniqueness
	// constraint is the real duplicate guard for racing requests.
	if err := p.registry.Create(ctx, t); err != nil {
		log.ErrorContext(ctx, "registry commit failed", slog.Any("error", err))
		return nil, failedAt(StepRegister, err)
	}

	log.InfoContext(ctx, "tenant provisioned", slog.String("tenant_id", id.String()))
	return t, nil
}

// validate normalizes and checks the request. The registry pre-check is an
// optimization only; the race between two identical requests is settled by
// the uniqueness constraint at StepRegister.
func (p *Provisioner) validate(ctx context.Context, req Request) (string, error) {
	sub, ok := tenant.NormalizeSubdomain(req.Subdomain)
	if !ok || len(sub) < minSubdomainLength || len(sub) > maxSubdomainLength || !subdomainPattern.MatchString(sub) {
		return "", failedAt(StepValidate, fmt.Errorf("%w: %q", ErrInvalidSubdomain, req.Subdomain))
	}
	if _, reserved := reservedSubdomains[sub]; reserved {
		return "", failedAt(StepValidate, fmt.Errorf("%w: %q", ErrReservedSubdomain, sub))
	}
	if req.AdminEmail == "" || req.AdminPassword == "" {
		return "", failedAt(StepValidate, ErrMissingAdminCredentials)
	}

	_, err := p.registry.GetBySubdomain(ctx, sub)
	switch {
	case err == nil:
		return "", failedAt(StepValidate, fmt.Errorf("%w: %q", tenant.ErrSubdomainTaken, sub))
	case errors.Is(err, tenant.ErrTenantNotFound):
		return sub, nil
	default:
		return "", failedAt(StepValidate, err)
	}
}
