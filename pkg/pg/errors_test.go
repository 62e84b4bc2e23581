package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tenantkit/pkg/pg"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.False(t, pg.IsNotFoundError(nil))
	assert.False(t, pg.IsNotFoundError(errors.New("boom")))
	assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, pg.IsNotFoundError(fmt.Errorf("lookup tenant: %w", pgx.ErrNoRows)))
}

func TestIsDuplicateKeyError(t *testing.T) {
	t.Parallel()

	assert.False(t, pg.IsDuplicateKeyError(nil))
	assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, pg.IsDuplicateKeyError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
}

func TestIsDuplicateDatabaseError(t *testing.T) {
	t.Parallel()

	assert.False(t, pg.IsDuplicateDatabaseError(nil))
	assert.True(t, pg.IsDuplicateDatabaseError(&pgconn.PgError{Code: "42P04"}))
	assert.False(t, pg.IsDuplicateDatabaseError(&pgconn.PgError{Code: "23505"}))
}

func TestIsInvalidCatalogNameError(t *testing.T) {
	t.Parallel()

	assert.False(t, pg.IsInvalidCatalogNameError(nil))
	assert.True(t, pg.IsInvalidCatalogNameError(&pgconn.PgError{Code: "3D000"}))
	assert.False(t, pg.IsInvalidCatalogNameError(&pgconn.PgError{Code: "42P04"}))
}
