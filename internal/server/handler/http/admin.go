// Package http provides the HTTP handlers and routing for the rubrica
// admin API: user provisioning and server shutdown.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avoront/rubrica/internal/auditlog"
	"github.com/avoront/rubrica/internal/repository"
	"github.com/avoront/rubrica/internal/validate"
)

// UserService defines the credential operations required by the admin
// handlers.
type UserService interface {
	// Add registers a new user with the given password.
	Add(ctx context.Context, username, password string) error
	// Remove deletes the user's credentials.
	Remove(ctx context.Context, username string) error
}

// AdminHandler handles HTTP requests for user provisioning and shutdown.
type AdminHandler struct {
	// Users performs the underlying credential operations.
	Users UserService
	// Audit records every administrative action.
	Audit *auditlog.Logger
	// Shutdown stops the contact server from accepting new connections.
	// Sessions already established keep running.
	Shutdown func()
	// Actor identifies this server instance in the audit trail,
	// e.g. "Server:50000".
	Actor string
}

// UserRequest represents the JSON payload for user registration.
type UserRequest struct {
	// Username is the account to create, up to 20 alphanumeric characters.
	Username string `json:"username"`
	// Password is the account's password, up to 20 alphanumeric characters.
	// It may be empty.
	Password string `json:"password"`
}

// AddUser handles user registration requests.
// It expects a JSON body with "username" and "password"; both must fit the
// wire format's field widths and character set. On success the user is
// appended to the credential store with a hashed password and 201 is
// returned.
func (h *AdminHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if !validate.Username(req.Username) {
		h.Audit.Record(h.Actor, "Requested to add new user", auditlog.StatusFailed, "Invalid username")
		http.Error(w, "invalid username", http.StatusBadRequest)
		return
	}
	if !validate.Password(req.Password) {
		h.Audit.Record(h.Actor, "Requested to add new user", auditlog.StatusFailed, "Invalid password")
		http.Error(w, "invalid password", http.StatusBadRequest)
		return
	}

	switch err := h.Users.Add(r.Context(), req.Username, req.Password); {
	case err == nil:
		h.Audit.Record(h.Actor, "Requested to add new user", auditlog.StatusSucceeded,
			"User ["+req.Username+"] added at end of list")
		w.WriteHeader(http.StatusCreated)
	case errors.Is(err, repository.ErrDuplicate):
		h.Audit.Record(h.Actor, "Requested to add new user", auditlog.StatusFailed,
			"User ["+req.Username+"] not added, was duplicate")
		http.Error(w, "user already exists", http.StatusConflict)
	default:
		h.Audit.Record(h.Actor, "Requested to add new user", auditlog.StatusFailed,
			"Could not add new user")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// RemoveUser handles user revocation requests.
// The username comes from the URL path. Removing a user does not tear down
// that user's live sessions: their next privileged request fails the
// credential re-check instead.
func (h *AdminHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	switch err := h.Users.Remove(r.Context(), username); {
	case err == nil:
		h.Audit.Record(h.Actor, "Requested to remove user", auditlog.StatusSucceeded,
			"User ["+username+"] removed successfully")
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, repository.ErrNotFound):
		h.Audit.Record(h.Actor, "Requested to remove user", auditlog.StatusFailed,
			"User ["+username+"] wasn't present")
		http.Error(w, "user not found", http.StatusNotFound)
	default:
		h.Audit.Record(h.Actor, "Requested to remove user", auditlog.StatusFailed,
			"Could not remove user")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// StopServer handles shutdown requests. It closes the contact listener and
// answers 202: accepted, but live sessions drain on their own schedule.
func (h *AdminHandler) StopServer(w http.ResponseWriter, r *http.Request) {
	h.Audit.Record(h.Actor, "Requested server shutdown", auditlog.StatusSucceeded,
		"Listener closed, live sessions keep running")
	h.Shutdown()
	w.WriteHeader(http.StatusAccepted)
}
