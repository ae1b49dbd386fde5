// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/enconsulting/projectdesk/internal/models"
)

// CreateProjectTodo inserts a project-scoped task. CreatedBy is fixed at
// creation.
func (db *DB) CreateProjectTodo(ctx context.Context, t *models.ProjectTodo) (*models.ProjectTodo, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO project_todos (project_id, title, description, status, created_by, assigned_to)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ProjectID, t.Title, t.Description, t.Status, t.CreatedBy, t.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("inserting project todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetProjectTodo(ctx, id)
}

// GetProjectTodo fetches a project todo or ErrNotFound.
func (db *DB) GetProjectTodo(ctx context.Context, id int64) (*models.ProjectTodo, error) {
	var t models.ProjectTodo
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, project_id, title, description, status, created_by, assigned_to, created_at
		 FROM project_todos WHERE id = ?`, id).
		Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.CreatedBy, &t.AssignedTo, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListProjectTodos returns a project's tasks.
func (db *DB) ListProjectTodos(ctx context.Context, projectID int64) ([]*models.ProjectTodo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, project_id, title, description, status, created_by, assigned_to, created_at
		 FROM project_todos WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []*models.ProjectTodo
	for rows.Next() {
		var t models.ProjectTodo
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
			&t.CreatedBy, &t.AssignedTo, &t.CreatedAt); err != nil {
			return nil, err
		}
		todos = append(todos, &t)
	}
	return todos, rows.Err()
}

// UpdateProjectTodo updates the workflow fields; created_by is untouchable.
func (db *DB) UpdateProjectTodo(ctx context.Context, id int64, title, description string, status models.TodoStatus) error {
	return db.execExpectingRow(ctx,
		`UPDATE project_todos SET title = ?, description = ?, status = ? WHERE id = ?`,
		title, description, status, id)
}

// AssignProjectTodo sets or clears the assignee.
func (db *DB) AssignProjectTodo(ctx context.Context, id int64, assigneeID *int64) error {
	return db.execExpectingRow(ctx,
		`UPDATE project_todos SET assigned_to = ? WHERE id = ?`, assigneeID, id)
}

// DeleteProjectTodo removes a task.
func (db *DB) DeleteProjectTodo(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx, `DELETE FROM project_todos WHERE id = ?`, id)
}

// CreatePersonalTodo inserts a private task for its owner.
func (db *DB) CreatePersonalTodo(ctx context.Context, userID int64, title string) (*models.PersonalTodo, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO personal_todos (user_id, title) VALUES (?, ?)`, userID, title)
	if err != nil {
		return nil, fmt.Errorf("inserting personal todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetPersonalTodo(ctx, id)
}

// GetPersonalTodo fetches a personal todo or ErrNotFound.
func (db *DB) GetPersonalTodo(ctx context.Context, id int64) (*models.PersonalTodo, error) {
	var t models.PersonalTodo
	var done int
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, title, done, created_at FROM personal_todos WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &t.Title, &done, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	t.Done = done != 0
	return &t, nil
}

// ListPersonalTodos returns the owner's private tasks.
func (db *DB) ListPersonalTodos(ctx context.Context, userID int64) ([]*models.PersonalTodo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, title, done, created_at
		 FROM personal_todos WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []*models.PersonalTodo
	for rows.Next() {
		var t models.PersonalTodo
		var done int
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &done, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Done = done != 0
		todos = append(todos, &t)
	}
	return todos, rows.Err()
}

// UpdatePersonalTodo updates title and done state.
func (db *DB) UpdatePersonalTodo(ctx context.Context, id int64, title string, done bool) error {
	return db.execExpectingRow(ctx,
		`UPDATE personal_todos SET title = ?, done = ? WHERE id = ?`, title, boolToInt(done), id)
}

// DeletePersonalTodo removes a private task.
func (db *DB) DeletePersonalTodo(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx, `DELETE FROM personal_todos WHERE id = ?`, id)
}
