package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Status governs whether the router will serve a tenant. The registry always
// reports the true status; policy enforcement happens in the Router.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusSuspended Status = "suspended"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusSuspended:
		return true
	}
	return false
}

// Tenant is one registry record: an isolated customer owning exactly one
// physical database. Subdomain and Locator are immutable once assigned;
// rotating a locator requires an explicit migration, never an in-place
// mutation visible to the router.
type Tenant struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Subdomain   string        `json:"subdomain"`
	DBName      string        `json:"db_name"`
	Locator     string        `json:"-"` // connection URL, carries credentials, never serialized
	Status      Status        `json:"status"`
	AdminUserID uuid.NullUUID `json:"admin_user_id"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Servable reports whether the router may hand out sessions for this tenant.
func (t *Tenant) Servable() bool {
	return t.Status == StatusActive
}
