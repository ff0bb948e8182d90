// Package service provides business logic for authentication and
// demand management, delegating persistence to repository interfaces.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/chaabi-dev/demandhub/internal/models"
	"github.com/chaabi-dev/demandhub/internal/token"
)

// ErrBadCredentials is returned when the password does not match.
var ErrBadCredentials = errors.New("Bad credentials")

// ErrUserNotFound is returned when no account exists for the email.
var ErrUserNotFound = errors.New("User not found")

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// GetByEmail fetches the user with the given email; the error wraps
	// sql.ErrNoRows when no such user exists.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService verifies credentials and issues bearer tokens.
type AuthService struct {
	repo   UserRepository
	secret string
	issuer string
	ttl    time.Duration
}

// NewAuthService constructs an AuthService.
// secret signs issued tokens; ttl bounds their lifetime.
func NewAuthService(repo UserRepository, secret, issuer string, ttl time.Duration) *AuthService {
	return &AuthService{repo: repo, secret: secret, issuer: issuer, ttl: ttl}
}

// Login checks the password for the account and returns a signed
// token embedding the user's identity. Fails with ErrUserNotFound or
// ErrBadCredentials; those messages are part of the client-facing
// error taxonomy.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	return token.Issue(s.secret, s.issuer, s.ttl, models.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
}
