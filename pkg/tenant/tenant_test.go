package tenant_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func TestStatus_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, tenant.StatusActive.Valid())
	assert.True(t, tenant.StatusPaused.Valid())
	assert.True(t, tenant.StatusSuspended.Valid())
	assert.False(t, tenant.Status("archived").Valid())
	assert.False(t, tenant.Status("").Valid())
}

func TestTenant_Servable(t *testing.T) {
	t.Parallel()

	active := &tenant.Tenant{Status: tenant.StatusActive}
	assert.True(t, active.Servable())

	paused := &tenant.Tenant{Status: tenant.StatusPaused}
	assert.False(t, paused.Servable())

	suspended := &tenant.Tenant{Status: tenant.StatusSuspended}
	assert.False(t, suspended.Servable())
}

func TestTenant_LocatorNeverSerialized(t *testing.T) {
	t.Parallel()

	rec := tenant.Tenant{
		ID:        uuid.New(),
		Name:      "Acme Inc",
		Subdomain: "acme",
		DBName:    "tenant_acme",
		Locator:   "postgres://tenant:secret@db:5432/tenant_acme",
		Status:    tenant.StatusActive,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "locator")
	assert.Contains(t, string(data), "acme")
}
