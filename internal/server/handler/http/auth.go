// Package http provides the HTTP handlers for the demand backend:
// credential login, logout, and demand CRUD with status transitions.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/chaabi-dev/demandhub/internal/service"
)

// AuthService defines the authentication operations required by the
// HTTP handlers.
type AuthService interface {
	// Login verifies credentials and returns a signed bearer token.
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler handles HTTP requests for login and logout.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Log records authentication failures for operators.
	Log *zap.Logger
}

// LoginRequest represents the JSON payload for credential login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
// It expects a JSON body with non-empty "email" and "password" and
// responds with {"token": "..."} on success. Credential failures
// return 401 with the backend error message the clients normalize.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadCredentials), errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			h.Log.Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout handles POST /api/v1/auth/logout.
// Tokens are stateless, so there is nothing to revoke server-side;
// the endpoint exists so clients can report logout and drop their
// token regardless of the outcome.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
