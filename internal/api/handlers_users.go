// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"net/http"

	"github.com/enconsulting/projectdesk/internal/models"
)

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=admin employee guest"`
}

// CreateUser handles POST /users (admin only). The role defaults to
// employee when omitted.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	allowed, err := h.engine.CanManageUsers(r.Context(), act)
	if !requireAllowed(w, allowed, err) {
		return
	}

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondAppError(w, err)
		return
	}

	if req.Role != "" && models.Role(req.Role) != user.Role {
		if err := h.db.UpdateUserRole(r.Context(), user.ID, models.Role(req.Role)); err != nil {
			respondAppError(w, err)
			return
		}
		user.Role = models.Role(req.Role)
	}

	respondData(w, http.StatusCreated, user)
}

// ListUsers handles GET /users (admin only).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	allowed, err := h.engine.CanManageUsers(r.Context(), act)
	if !requireAllowed(w, allowed, err) {
		return
	}

	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, users)
}

// GetUser handles GET /users/{userID}. Users may read themselves; admins
// may read anyone.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}

	if id != act.ID {
		allowed, err := h.engine.CanManageUsers(r.Context(), act)
		if !requireAllowed(w, allowed, err) {
			return
		}
	}

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

type updateUserRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=admin employee guest"`
}

// UpdateUser handles PUT /users/{userID}. Profile fields are self-service;
// a role change is admin only.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	isSelf := id == act.ID
	if !isSelf || req.Role != "" {
		allowed, err := h.engine.CanManageUsers(r.Context(), act)
		if !requireAllowed(w, allowed, err) {
			return
		}
	}

	if err := h.db.UpdateUserProfile(r.Context(), id, req.FirstName, req.LastName); err != nil {
		respondAppError(w, err)
		return
	}
	if req.Role != "" {
		if err := h.db.UpdateUserRole(r.Context(), id, models.Role(req.Role)); err != nil {
			respondAppError(w, err)
			return
		}
	}

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{userID} (admin only).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "userID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanManageUsers(r.Context(), act)
	if !requireAllowed(w, allowed, err) {
		return
	}

	if err := h.db.DeleteUser(r.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
