package tenant

import "errors"

var (
	// ErrNoSubdomain is returned when the host header carries no tenant subdomain.
	ErrNoSubdomain = errors.New("subdomain not detected")

	// ErrTenantNotFound is returned when no tenant matches the subdomain.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantInactive is returned when the tenant exists but is not servable.
	ErrTenantInactive = errors.New("tenant is not active")

	// ErrSubdomainTaken is returned when the registry uniqueness constraint
	// rejects a subdomain.
	ErrSubdomainTaken = errors.New("subdomain already taken")

	// ErrDatabaseUnavailable is returned when the tenant database pool cannot
	// be constructed or a connection cannot be acquired. Transient; callers
	// may retry with backoff.
	ErrDatabaseUnavailable = errors.New("tenant database unreachable")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")
)
