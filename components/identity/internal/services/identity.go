// Package services implements the identity boundary's use cases: password
// verification and token issuance. Every other component verifies tokens
// independently against the public key; only identity issues them.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/authn"
)

// User is the identity writer's system-of-record row.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Repository is the storage boundary the use case depends on.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, u User) error
	CountUsers(ctx context.Context) (int, error)
}

// UseCase implements login and bootstrap.
type UseCase struct {
	Repo   Repository
	Issuer *authn.Issuer
}

// Login verifies username/password and, on success, issues a signed token.
func (u *UseCase) Login(ctx context.Context, username, password string) (string, error) {
	user, err := u.Repo.FindByUsername(ctx, username)
	if err != nil {
		return "", apperrors.UnauthorizedError{Reason: "invalid username or password"}
	}

	if !authn.ComparePassword(user.PasswordHash, password) {
		return "", apperrors.UnauthorizedError{Reason: "invalid username or password"}
	}

	return u.Issuer.Issue(user.ID, user.Username, user.Role)
}

// BootstrapAdmin creates the initial admin user the first time the
// identity store is empty, so a fresh deployment has a way in. This
// supplements the distilled spec with the original system's admin seed
// behavior; it is a no-op once any user exists.
func (u *UseCase) BootstrapAdmin(ctx context.Context, username, password string) error {
	count, err := u.Repo.CountUsers(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := authn.HashPassword(password)
	if err != nil {
		return err
	}

	return u.Repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    time.Now().UTC(),
	})
}
