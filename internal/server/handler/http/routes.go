package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/avoront/rubrica/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the rubrica
// admin API.
//
// Routes:
//
//	POST   /admin/users             → adminHandler.AddUser
//	DELETE /admin/users/{username}  → adminHandler.RemoveUser
//	POST   /admin/shutdown          → adminHandler.StopServer
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. WithRequestLogging(logger)           — logs incoming requests
//  3. TokenAuth(token)                     — enforces bearer-token auth
func NewRouter(adminHandler *AdminHandler, logger *zap.Logger, token string) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	// Every admin route requires the configured bearer token
	r.Use(middleware.TokenAuth(token))

	r.Route("/admin", func(r chi.Router) {
		r.Post("/users", adminHandler.AddUser)
		r.Delete("/users/{username}", adminHandler.RemoveUser)
		r.Post("/shutdown", adminHandler.StopServer)
	})

	return r
}
