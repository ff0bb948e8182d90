package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chaabi-dev/demandhub/internal/gateway"
)

// AuthError is a login or session failure with a message safe to show
// to the user.
type AuthError struct {
	// Message is the normalized, human-readable description.
	Message string
	// Status is the HTTP status code when the backend answered; zero
	// for local failures such as a malformed token.
	Status int
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
	}
	return "auth error: " + e.Message
}

// knownBackendErrors maps backend auth-failure markers to user-facing
// messages. Matched by substring against the raw backend message.
var knownBackendErrors = []struct {
	marker  string
	message string
}{
	{"BadCredentialsException", "Invalid email or password"},
	{"Bad credentials", "Invalid email or password"},
	{"UserNotFoundException", "User not found. Please check your email address"},
	{"User not found", "User not found. Please check your email address"},
	{"AccountExpiredException", "Account has expired. Please contact support"},
	{"Account expired", "Account has expired. Please contact support"},
	{"CredentialsExpiredException", "Password has expired. Please reset your password"},
	{"Credentials expired", "Password has expired. Please reset your password"},
	{"AccountLockedException", "Account is locked. Please contact support"},
	{"Account locked", "Account is locked. Please contact support"},
	{"DisabledException", "Account is disabled. Please contact support"},
	{"Account disabled", "Account is disabled. Please contact support"},
	{"InternalAuthenticationServiceException", "Authentication service error. Please try again later"},
}

// normalizeAuthError converts gateway failures into an *AuthError with
// a message users can act on. Known backend messages win over status
// codes; unknown backend messages are passed through verbatim.
func normalizeAuthError(err error) *AuthError {
	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		for _, known := range knownBackendErrors {
			if strings.Contains(httpErr.Message, known.marker) {
				return &AuthError{Message: known.message, Status: httpErr.Status}
			}
		}
		switch {
		case httpErr.Status == http.StatusUnauthorized:
			return &AuthError{Message: "Invalid email or password", Status: httpErr.Status}
		case httpErr.Status == http.StatusForbidden:
			return &AuthError{Message: "Access denied. Insufficient permissions", Status: httpErr.Status}
		case httpErr.Status == http.StatusNotFound:
			return &AuthError{Message: "Service not found. Please contact support", Status: httpErr.Status}
		case httpErr.Status >= 500:
			return &AuthError{Message: "Server error. Please try again later", Status: httpErr.Status}
		}
		return &AuthError{Message: httpErr.Message, Status: httpErr.Status}
	}

	var transportErr *gateway.TransportError
	if errors.As(err, &transportErr) {
		return &AuthError{Message: "Unable to connect to server. Please ensure the backend is reachable"}
	}

	return &AuthError{Message: err.Error()}
}
