// Package authz centralizes role checks and navigation guarding.
// All decisions are pure functions over the current identity so they
// can be evaluated synchronously on every render or navigation attempt.
package authz

import "github.com/chaabi-dev/demandhub/internal/models"

// Decision is the outcome of a navigation-guard evaluation.
type Decision int

const (
	// Allow lets the navigation proceed.
	Allow Decision = iota
	// RedirectToLogin sends an unauthenticated visitor to the login
	// entry point, preserving the requested path for post-login redirect.
	RedirectToLogin
	// RedirectToDashboard sends an already-authenticated visitor away
	// from an anonymous-only page.
	RedirectToDashboard
	// Pending means identity resolution is still in flight; the caller
	// should show a loading state instead of redirecting prematurely.
	Pending
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToDashboard:
		return "redirect-to-dashboard"
	case Pending:
		return "pending"
	}
	return "unknown"
}

// Route describes the guard policy of a navigation target.
type Route struct {
	// Path is the requested path, echoed back on RedirectToLogin.
	Path string
	// RequiresAuth marks the route as reachable only when logged in.
	RequiresAuth bool
	// AnonymousOnly marks the route as reachable only when logged out,
	// such as the login page itself.
	AnonymousOnly bool
	// AllowedRoles restricts the route to a role subset; empty means
	// any authenticated role.
	AllowedRoles []models.Role
}

// Navigation is the result of CanNavigate: the decision plus the path
// to return to after a successful login.
type Navigation struct {
	Decision   Decision
	ReturnPath string
}

// CanAccess reports whether the identity may use an element restricted
// to the given roles. An empty role list means "no restriction" and is
// always true; an absent identity never passes a non-empty restriction.
func CanAccess(identity *models.Identity, allowed ...models.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	if identity == nil {
		return false
	}
	for _, role := range allowed {
		if identity.Role == role {
			return true
		}
	}
	return false
}

// CanNavigate evaluates the route-guard policy for a navigation target.
// resolving must be true while a session restore is still in flight,
// in which case the decision is Pending for any guarded route.
func CanNavigate(identity *models.Identity, resolving bool, route Route) Navigation {
	if resolving && (route.RequiresAuth || route.AnonymousOnly) {
		return Navigation{Decision: Pending}
	}
	if route.AnonymousOnly && identity != nil {
		return Navigation{Decision: RedirectToDashboard}
	}
	if route.RequiresAuth {
		if identity == nil {
			return Navigation{Decision: RedirectToLogin, ReturnPath: route.Path}
		}
		if !CanAccess(identity, route.AllowedRoles...) {
			// Authenticated but wrong role: land on the dashboard
			// rather than the login page.
			return Navigation{Decision: RedirectToDashboard}
		}
	}
	return Navigation{Decision: Allow}
}
