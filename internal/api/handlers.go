// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

// Package api exposes the HTTP surface: a chi router with route groups
// for authentication, user administration, and project collaboration.
// Handlers resolve the acting user, ask the authz engine, and translate
// core sentinels into status codes. Handler methods are split by domain:
//
//   - handlers.go: Handler struct, constructor, health (this file)
//   - handlers_auth.go: login, two-factor, password reset and change
//   - handlers_users.go: admin user management
//   - handlers_projects.go: projects and membership
//   - handlers_todos.go: project and personal to-dos
//   - handlers_documents.go: document upload, download, delete
//   - handlers_milestones.go: milestones and contracts
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/enconsulting/projectdesk/internal/auth"
	"github.com/enconsulting/projectdesk/internal/authz"
	"github.com/enconsulting/projectdesk/internal/config"
	"github.com/enconsulting/projectdesk/internal/database"
	"github.com/enconsulting/projectdesk/internal/models"
)

// Handler contains dependencies for API handlers.
type Handler struct {
	db         *database.DB
	engine     *authz.Engine
	auth       *auth.Service
	cfg        *config.Config
	startTime  time.Time
	loginLimit *LoginLimiter
}

// NewHandler creates the API handler.
func NewHandler(db *database.DB, engine *authz.Engine, authSvc *auth.Service, cfg *config.Config) *Handler {
	return &Handler{
		db:         db,
		engine:     engine,
		auth:       authSvc,
		cfg:        cfg,
		startTime:  time.Now(),
		loginLimit: NewLoginLimiter(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginWindow),
	}
}

// Close releases background resources held by the handler.
func (h *Handler) Close() {
	h.loginLimit.Stop()
}

// Health reports liveness and storage reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondData(w, code, map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

// urlID parses a numeric chi URL parameter. A second return of false
// means the response has been written.
func urlID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
		return 0, false
	}
	return id, true
}

// actor pulls the resolved acting user; ResolveActor guarantees presence
// on protected routes.
func actor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
		return nil, false
	}
	return user, true
}
