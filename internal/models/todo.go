// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package models

import "time"

// TodoStatus is the workflow state of a project to-do.
type TodoStatus string

const (
	TodoOpen       TodoStatus = "open"
	TodoInProgress TodoStatus = "in_progress"
	TodoDone       TodoStatus = "done"
)

// ValidTodoStatus reports whether s is a known workflow state.
func ValidTodoStatus(s TodoStatus) bool {
	switch s {
	case TodoOpen, TodoInProgress, TodoDone:
		return true
	}
	return false
}

// ProjectTodo is a task scoped to a project. CreatedBy is immutable after
// creation; AssignedTo may only be set by admins.
type ProjectTodo struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TodoStatus `json:"status"`
	CreatedBy   int64      `json:"created_by"`
	AssignedTo  *int64     `json:"assigned_to,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PersonalTodo is a private task visible only to its owner (and admins).
type PersonalTodo struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}
