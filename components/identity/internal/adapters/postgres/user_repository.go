package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/productcatalog/platform/components/identity/internal/services"
	"github.com/productcatalog/platform/pkg/apperrors"
)

// UserRepository implements services.Repository against Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository builds a UserRepository bound to pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByUsername looks up a user row by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (services.User, error) {
	var u services.User

	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)

	if err == pgx.ErrNoRows {
		return services.User{}, apperrors.NotFoundError{EntityType: "user", ID: username}
	}

	if err != nil {
		return services.User{}, fmt.Errorf("postgres: failed to find user: %w", err)
	}

	return u, nil
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, u services.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create user: %w", err)
	}

	return nil
}

// CountUsers returns the total number of user rows.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int

	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to count users: %w", err)
	}

	return count, nil
}
