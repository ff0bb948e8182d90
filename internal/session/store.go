// Package session owns the client's authentication state: the current
// identity in memory and the raw token on disk. There is one Store per
// running client; it is injected into the gateway and the CLI rather
// than accessed as a global.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chaabi-dev/demandhub/internal/models"
	"github.com/chaabi-dev/demandhub/internal/token"
)

// AuthClient is the slice of the gateway the store needs: credential
// exchange and best-effort remote logout.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context) error
}

// Persistence is the durable home of the raw token between runs.
type Persistence interface {
	Read() (token string, ok bool, err error)
	Write(token string) error
	Clear() error
}

// Store holds the current session. All methods are safe for
// concurrent use; overlapping logins resolve last-write-wins.
type Store struct {
	auth    AuthClient
	persist Persistence
	log     *zap.Logger

	mu       sync.Mutex
	identity *models.Identity
	rawToken string
}

// NewStore constructs a Store. The session starts empty; call Restore
// to pick up a token persisted by a previous run.
func NewStore(auth AuthClient, persist Persistence, log *zap.Logger) *Store {
	return &Store{auth: auth, persist: persist, log: log}
}

// Login exchanges credentials for a token, decodes it, installs the
// session, and persists the raw token. Returns *AuthError on any
// network, server, or decode failure.
func (s *Store) Login(ctx context.Context, email, password string) (models.Identity, error) {
	raw, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return models.Identity{}, normalizeAuthError(err)
	}

	identity, err := token.Decode(raw)
	if err != nil {
		return models.Identity{}, &AuthError{Message: "Authentication failed. Please try again"}
	}

	s.mu.Lock()
	s.identity = &identity
	s.rawToken = raw
	s.mu.Unlock()

	if err := s.persist.Write(raw); err != nil {
		// The in-memory session is live; only re-login after restart
		// is affected.
		s.log.Warn("failed to persist session token", zap.Error(err))
	}
	return identity, nil
}

// Restore loads a persisted token from a previous run. An absent or
// expired token yields (zero, false, nil): expiry is a silent logout,
// not an error. A malformed token is cleared and surfaced.
func (s *Store) Restore() (models.Identity, bool, error) {
	raw, ok, err := s.persist.Read()
	if err != nil {
		return models.Identity{}, false, err
	}
	if !ok {
		return models.Identity{}, false, nil
	}

	// Decode before the expiry check so a malformed token surfaces
	// instead of being mistaken for an expired one.
	identity, err := token.Decode(raw)
	if err != nil {
		if clearErr := s.persist.Clear(); clearErr != nil {
			s.log.Warn("failed to clear malformed token", zap.Error(clearErr))
		}
		return models.Identity{}, false, err
	}

	if token.IsExpired(raw) {
		if err := s.persist.Clear(); err != nil {
			s.log.Warn("failed to clear expired token", zap.Error(err))
		}
		return models.Identity{}, false, nil
	}

	s.mu.Lock()
	s.identity = &identity
	s.rawToken = raw
	s.mu.Unlock()
	return identity, true, nil
}

// Logout invalidates the token remotely on a best-effort basis, then
// always clears the in-memory session and the persisted token.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	hadToken := s.rawToken != ""
	s.mu.Unlock()

	if hadToken {
		if err := s.auth.Logout(ctx); err != nil {
			s.log.Warn("server logout failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.identity = nil
	s.rawToken = ""
	s.mu.Unlock()

	if err := s.persist.Clear(); err != nil {
		s.log.Warn("failed to clear persisted token", zap.Error(err))
	}
}

// CurrentIdentity returns a copy of the logged-in identity, if any.
func (s *Store) CurrentIdentity() (models.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// Token returns the raw bearer token for the gateway's Authorization
// header. Implements gateway.TokenSource.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawToken, s.rawToken != ""
}
