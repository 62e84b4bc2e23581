package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
)

// Registry is the client for the central store of tenant records, the single
// source of truth for tenant existence and status. Absence is an expected
// outcome (ErrTenantNotFound), not a fault; a non-active record is returned
// as-is and the Router decides whether to serve it.
//
// Implementations must be safe for concurrent use.
type Registry interface {
	// GetBySubdomain looks up the tenant record for a normalized subdomain key.
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)

	// GetByID looks up a tenant record by its identifier.
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// List returns a page of tenant records and the total count.
	List(ctx context.Context, offset, limit int) ([]Tenant, int, error)

	// Create inserts a new tenant record. The store-level uniqueness
	// constraint on subdomain is the real duplicate guard; violations are
	// reported as ErrSubdomainTaken.
	Create(ctx context.Context, t *Tenant) error

	// UpdateStatus changes a tenant's status. Administrative operation;
	// never called by the Router.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

const tenantColumns = "id, name, subdomain, db_name, locator, status, admin_user_id, created_at"

// PostgresRegistry is the pgx-backed Registry over the central `tenants`
// table. Stateless per call; consistency comes from the store, not from any
// in-process cache.
type PostgresRegistry struct {
	db *pgxpool.Pool
}

// NewPostgresRegistry creates a registry client over the central store pool.
func NewPostgresRegistry(db *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	key, ok := NormalizeSubdomain(subdomain)
	if !ok {
		return nil, ErrTenantNotFound
	}

	row := r.db.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE subdomain = $1", key)

	return scanTenant(row)
}

func (r *PostgresRegistry) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id)

	return scanTenant(row)
}

func (r *PostgresRegistry) List(ctx context.Context, offset, limit int) ([]Tenant, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM tenants").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	rows, err := r.db.Query(ctx,
		"SELECT "+tenantColumns+" FROM tenants ORDER BY created_at, id OFFSET $1 LIMIT $2",
		offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Subdomain, &t.DBName, &t.Locator,
			&t.Status, &t.AdminUserID, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}

	return tenants, total, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, t *Tenant) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tenants (id, name, subdomain, db_name, locator, status, admin_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Name, t.Subdomain, t.DBName, t.Locator, t.Status, t.AdminUserID, t.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrSubdomainTaken
		}
		return fmt.Errorf("insert tenant %s: %w", t.Subdomain, err)
	}
	return nil
}

func (r *PostgresRegistry) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid tenant status %q", status)
	}

	tag, err := r.db.Exec(ctx,
		"UPDATE tenants SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update tenant %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.DBName, &t.Locator,
		&t.Status, &t.AdminUserID, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}
