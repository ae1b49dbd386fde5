// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"net/http"

	"github.com/enconsulting/projectdesk/internal/models"
)

type projectTodoRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=open in_progress done"`
}

// ListProjectTodos handles GET /projects/{projectID}/todos.
func (h *Handler) ListProjectTodos(w http.ResponseWriter, r *http.Request) {
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

	todos, err := h.db.ListProjectTodos(r.Context(), projectID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, todos)
}

// CreateProjectTodo handles POST /projects/{projectID}/todos.
func (h *Handler) CreateProjectTodo(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanCreateTodo(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	var req projectTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status := models.TodoStatus(req.Status)
	if req.Status == "" {
		status = models.TodoOpen
	}

	todo, err := h.db.CreateProjectTodo(r.Context(), &models.ProjectTodo{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		CreatedBy:   act.ID,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusCreated, todo)
}

// UpdateProjectTodo handles PUT /projects/{projectID}/todos/{todoID}.
// The creator never changes, no matter who edits.
func (h *Handler) UpdateProjectTodo(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	todoID, ok := urlID(w, r, "todoID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanEditTodo(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	todo, err := h.db.GetProjectTodo(r.Context(), todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if todo.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}

	var req projectTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status := models.TodoStatus(req.Status)
	if req.Status == "" {
		status = todo.Status
	}

	if err := h.db.UpdateProjectTodo(r.Context(), todoID, req.Title, req.Description, status); err != nil {
		respondAppError(w, err)
		return
	}

	updated, err := h.db.GetProjectTodo(r.Context(), todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

type assignTodoRequest struct {
	// AssigneeID nil clears the assignment.
	AssigneeID *int64 `json:"assignee_id" validate:"omitempty,gt=0"`
}

// AssignProjectTodo handles PUT /projects/{projectID}/todos/{todoID}/assign
// (admin only).
func (h *Handler) AssignProjectTodo(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	todoID, ok := urlID(w, r, "todoID")
	if !ok {
		return
	}

	allowed, err := h.engine.CanAssignTodos(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	todo, err := h.db.GetProjectTodo(r.Context(), todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if todo.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}

	var req assignTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.AssigneeID != nil {
		if _, err := h.db.GetUserByID(r.Context(), *req.AssigneeID); err != nil {
			respondAppError(w, err)
			return
		}
	}

	if err := h.db.AssignProjectTodo(r.Context(), todoID, req.AssigneeID); err != nil {
		respondAppError(w, err)
		return
	}

	updated, err := h.db.GetProjectTodo(r.Context(), todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// DeleteProjectTodo handles DELETE /projects/{projectID}/todos/{todoID}.
// Admins delete any todo; employees only their own.
func (h *Handler) DeleteProjectTodo(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	projectID, ok := urlID(w, r, "projectID")
	if !ok {
		return
	}
	todoID, ok := urlID(w, r, "todoID")
	if !ok {
		return
	}

	// View rights gate the lookup so outsiders cannot distinguish a
	// missing todo from a forbidden one.
	allowed, err := h.engine.CanViewProject(r.Context(), act, projectID)
	if !requireAllowed(w, allowed, err) {
		return
	}

	todo, err := h.db.GetProjectTodo(r.Context(), todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if todo.ProjectID != projectID {
		respondAppError(w, models.ErrNotFound)
		return
	}

	allowed, err = h.engine.CanDeleteTodo(r.Context(), act, projectID, todo.CreatedBy)
	if !requireAllowed(w, allowed, err) {
		return
	}

	if err := h.db.DeleteProjectTodo(r.Context(), todoID); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

type personalTodoRequest struct {
	Title string `json:"title" validate:"required"`
	Done  bool   `json:"done"`
}

// ListPersonalTodos handles GET /todos.
func (h *Handler) ListPersonalTodos(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}

	todos, err := h.db.ListPersonalTodos(r.Context(), act.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, todos)
}

// CreatePersonalTodo handles POST /todos.
func (h *Handler) CreatePersonalTodo(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}

	var req personalTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.db.CreatePersonalTodo(r.Context(), act.ID, req.Title)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusCreated, todo)
}

// UpdatePersonalTodo handles PUT /todos/{todoID}. Personal todos are
// private: only the owner (or an admin) touches them.
func (h *Handler) UpdatePersonalTodo(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	todoID, ok := urlID(w, r, "todoID")
	if !ok {
		return
	}

	todo, err := h.db.GetPersonalTodo(r.Context(), todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if todo.UserID != act.ID && !act.IsAdmin() {
		respondAppError(w, models.ErrForbidden)
		return
	}

	var req personalTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.db.UpdatePersonalTodo(r.Context(), todoID, req.Title, req.Done); err != nil {
		respondAppError(w, err)
		return
	}

	updated, err := h.db.GetPersonalTodo(r.Context(), todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// DeletePersonalTodo handles DELETE /todos/{todoID}.
func (h *Handler) DeletePersonalTodo(w http.ResponseWriter, r *http.Request) {
	act, ok := actor(w, r)
	if !ok {
		return
	}
	todoID, ok := urlID(w, r, "todoID")
	if !ok {
		return
	}

	todo, err := h.db.GetPersonalTodo(r.Context(), todoID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if todo.UserID != act.ID && !act.IsAdmin() {
		respondAppError(w, models.ErrForbidden)
		return
	}

	if err := h.db.DeletePersonalTodo(r.Context(), todoID); err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
