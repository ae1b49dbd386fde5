// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package models

import "time"

// Project is the unit of collaboration. Non-admin access to anything inside
// a project is gated on a ProjectMember row.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectMember grants an employee or guest participation rights in a
// project. Row existence is the sole membership test; there are no
// per-member permission levels.
type ProjectMember struct {
	UserID    int64     `json:"user_id"`
	ProjectID int64     `json:"project_id"`
	AddedAt   time.Time `json:"added_at"`
}

// Document is a file attached to a project. UploadedBy is set once at
// upload time and never reassigned; delete-own checks compare against it.
type Document struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	Filename   string    `json:"filename"`
	Content    []byte    `json:"-"`
	Size       int64     `json:"size"`
	UploadedBy int64     `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Milestone marks a dated goal inside a project.
type Milestone struct {
	ID        int64      `json:"id"`
	ProjectID int64      `json:"project_id"`
	Title     string     `json:"title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"created_at"`
}

// Contract is a project-scoped agreement record. Document generation is
// handled elsewhere; the core only stores the structured fields.
type Contract struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
