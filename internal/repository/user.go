// Package repository provides persistence implementations for the
// demand service using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chaabi-dev/demandhub/internal/models"
)

// PostgresUserRepository implements account lookups against a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetByEmail fetches the user with the given email address.
// Returns sql.ErrNoRows (wrapped) when no such user exists.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, email, name, role, password_hash FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	parsed, ok := models.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("GetByEmail: user %s has unknown role %q", email, role)
	}
	u.Role = parsed
	return &u, nil
}
