// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"net/http"
)

type projectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// ListProjects handles GET /projects: all projects for admins, joined
// projects for everyone else.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}

	projects, err := h.engine.AccessibleProjects(r.Context(), act)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, projects)
}

// CreateProject handles POST /projects (admin only).
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	allowed, err := h.engine.CanCreateProject(r.Context(), act)
	if !requireAllowed(w, allowed, err) {
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := h.db.CreateProject(r.Context(), req.Name, req.Description, act.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusCreated, project)
}

// GetProject handles GET /projects/{projectID}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanViewProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	project, err := h.db.GetProject(r.Context(), projectID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, project)
}

// UpdateProject handles PUT /projects/{projectID} (admin only).
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanEditProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.db.UpdateProject(r.Context(), projectID, req.Name, req.Description); err != nil {
		respondAppError(w, err)
		return
	}

	project, err := h.db.GetProject(r.Context(), projectID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, project)
}

// DeleteProject handles DELETE /projects/{projectID} (admin only).
// Membership is irrelevant: an admin deletes projects they never joined.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanDeleteProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	if err := h.db.DeleteProject(r.Context(), projectID); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

// ListProjectMembers handles GET /projects/{projectID}/members.
func (h *Handler) ListProjectMembers(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanViewProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	members, err := h.db.ListProjectMembers(r.Context(), projectID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, members)
}

type memberRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// AddProjectMember handles POST /projects/{projectID}/members (admin only).
func (h *Handler) AddProjectMember(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanManageMembers(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Both sides must exist before the row goes in.
	if _, err := h.db.GetUserByID(r.Context(), req.UserID); err != nil {
		respondAppError(w, err)
		return
	}
	if _, err := h.db.GetProject(r.Context(), projectID); err != nil {
		respondAppError(w, err)
		return
	}

	if err := h.db.AddProjectMember(r.Context(), req.UserID, projectID); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"added": true})
}

// RemoveProjectMember handles DELETE /projects/{projectID}/members/{userID}
// (admin only).
func (h *Handler) RemoveProjectMember(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	userID, ok := urlID(w, r, "userID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanManageMembers(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	if err := h.db.RemoveProjectMember(r.Context(), userID, projectID); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"removed": true})
}
