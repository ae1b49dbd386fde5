// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"net/http"
	"time"

	"github.com/enconsulting/projectdesk/internal/models"
)

type milestoneRequest struct {
	Title   string     `json:"title" validate:"required"`
	DueDate *time.Time `json:"due_date"`
	Done    bool       `json:"done"`
}

// ListMilestones handles GET /projects/{projectID}/milestones.
func (h *Handler) ListMilestones(w http.ResponseWriter, r *http.Request) {
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

	milestones, err := h.db.ListMilestones(r.Context(), projectID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, milestones)
}

// CreateMilestone handles POST /projects/{projectID}/milestones. Milestones
// shape the project plan, so mutations are admin territory.
func (h *Handler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
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

	var req milestoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	milestone, err := h.db.CreateMilestone(r.Context(), projectID, req.Title, req.DueDate)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusCreated, milestone)
}

// UpdateMilestone handles PUT /projects/{projectID}/milestones/{milestoneID}.
func (h *Handler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	milestoneID, ok := urlID(w, r, "milestoneID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanEditProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	milestone, err := h.db.GetMilestone(r.Context(), milestoneID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if milestone.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}

	var req milestoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.db.UpdateMilestone(r.Context(), milestoneID, req.Title, req.DueDate, req.Done); err != nil {
		respondAppError(w, err)
		return
	}

	updated, err := h.db.GetMilestone(r.Context(), milestoneID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// DeleteMilestone handles DELETE /projects/{projectID}/milestones/{milestoneID}.
func (h *Handler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	milestoneID, ok := urlID(w, r, "milestoneID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanEditProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	milestone, err := h.db.GetMilestone(r.Context(), milestoneID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if milestone.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}

	if err := h.db.DeleteMilestone(r.Context(), milestoneID); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

type contractRequest struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// ListContracts handles GET /projects/{projectID}/contracts.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
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

	contracts, err := h.db.ListContracts(r.Context(), projectID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, contracts)
}

// CreateContract handles POST /projects/{projectID}/contracts (admin only).
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
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

	var req contractRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contract, err := h.db.CreateContract(r.Context(), projectID, req.Title, req.Body, act.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusCreated, contract)
}

// GetContract handles GET /projects/{projectID}/contracts/{contractID}.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	contractID, ok := urlID(w, r, "contractID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanViewProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	contract, err := h.db.GetContract(r.Context(), contractID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if contract.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}
	respondData(w, http.StatusOK, contract)
}

// DeleteContract handles DELETE /projects/{projectID}/contracts/{contractID}.
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	contractID, ok := urlID(w, r, "contractID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanEditProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	contract, err := h.db.GetContract(r.Context(), contractID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if contract.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}

	if err := h.db.DeleteContract(r.Context(), contractID); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
