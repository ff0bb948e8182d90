package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chaabi-dev/demandhub/internal/middleware"
)

// NewRouter constructs the HTTP handler serving the demand API.
//
// Routes:
//
//	POST   /api/v1/auth/login            → authHandler.Login (public)
//	POST   /api/v1/auth/logout           → authHandler.Logout
//	GET    /api/v1/demands               → demandHandler.List
//	POST   /api/v1/demands               → demandHandler.Create (multipart)
//	GET    /api/v1/demands/{id}          → demandHandler.Get
//	PUT    /api/v1/demands/{id}          → demandHandler.Update (multipart)
//	PATCH  /api/v1/demands/{id}/status   → demandHandler.UpdateStatus
//	DELETE /api/v1/demands/{id}          → demandHandler.Delete
//	GET    /api/v1/files/{name}          → demandHandler.ServeFile
//
// Everything except login runs behind the bearer-token middleware.
func NewRouter(
	authHandler *AuthHandler,
	demandHandler *DemandHandler,
	logger *zap.Logger,
	jwtSecret string,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoint
		r.Post("/auth/login", authHandler.Login)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtSecret))

			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/demands", func(r chi.Router) {
				r.Get("/", demandHandler.List)
				r.Post("/", demandHandler.Create)
				r.Get("/{id}", demandHandler.Get)
				r.Put("/{id}", demandHandler.Update)
				r.Patch("/{id}/status", demandHandler.UpdateStatus)
				r.Delete("/{id}", demandHandler.Delete)
			})

			r.Get("/files/{name}", demandHandler.ServeFile)
		})
	})

	return r
}
