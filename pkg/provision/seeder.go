package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// pgxSeeder inserts the initial admin user over a short-lived connection to
// the freshly migrated tenant database. It expects the users table created by
// the tenant schema migrations.
type pgxSeeder struct{}

func (s *pgxSeeder) Seed(ctx context.Context, locator string, admin AdminUser) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	conn, err := pgx.Connect(ctx, locator)
	if err != nil {
		return fmt.Errorf("connect to tenant database: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	_, err = conn.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, is_admin, created_at)
		 VALUES ($1, $2, $3, TRUE, $4)`,
		admin.ID, admin.Email, string(hash), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	return nil
}
