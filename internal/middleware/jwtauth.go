// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chaabi-dev/demandhub/internal/models"
	"github.com/chaabi-dev/demandhub/internal/token"
)

type ctxKey string

const identityKey ctxKey = "identity"

// unauthorized replies with the same {status, message} JSON shape the
// handlers use.
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}{Status: http.StatusUnauthorized, Message: message})
}

// JWTAuth enforces bearer-token authentication.
//
// It expects an "Authorization: Bearer <token>" header, verifies the
// token signature and expiry against secret, and stores the decoded
// identity in the request context for downstream handlers.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "authorization required")
				return
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == header {
				unauthorized(w, "authorization required")
				return
			}

			identity, err := token.Verify(secret, raw)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentityFromContext extracts the authenticated identity from the
// request context. ok is false when the request was not authenticated.
func GetIdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}
