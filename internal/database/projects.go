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

// CreateProject inserts a project owned by creatorID.
func (db *DB) CreateProject(ctx context.Context, name, description string, creatorID int64) (*models.Project, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (name, description, created_by) VALUES (?, ?, ?)`,
		name, description, creatorID)
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetProject(ctx, id)
}

// GetProject fetches a project or ErrNotFound.
func (db *DB) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, created_by, created_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProject updates name and description.
func (db *DB) UpdateProject(ctx context.Context, id int64, name, description string) error {
	return db.execExpectingRow(ctx,
		`UPDATE projects SET name = ?, description = ? WHERE id = ?`, name, description, id)
}

// DeleteProject removes a project; memberships and scoped resources cascade.
func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx, `DELETE FROM projects WHERE id = ?`, id)
}

// ListAllProjects returns every project (admin view).
func (db *DB) ListAllProjects(ctx context.Context) ([]*models.Project, error) {
	return db.queryProjects(ctx,
		`SELECT id, name, description, created_by, created_at FROM projects ORDER BY id`)
}

// ListProjectsForUser returns projects the user participates in, via the
// membership join. Admin callers get ListAllProjects instead; that routing
// happens in the authz engine, not here.
func (db *DB) ListProjectsForUser(ctx context.Context, userID int64) ([]*models.Project, error) {
	return db.queryProjects(ctx,
		`SELECT p.id, p.name, p.description, p.created_by, p.created_at
		 FROM projects p
		 JOIN project_members m ON m.project_id = p.id
		 WHERE m.user_id = ?
		 ORDER BY p.id`, userID)
}

func (db *DB) queryProjects(ctx context.Context, query string, args ...any) ([]*models.Project, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// IsProjectMember is the single membership test: a row exists for
// (user, project). The authz engine consults it only for non-admin actors.
func (db *DB) IsProjectMember(ctx context.Context, userID, projectID int64) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM project_members WHERE user_id = ? AND project_id = ?`,
		userID, projectID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddProjectMember inserts a membership row. Adding twice is a no-op.
func (db *DB) AddProjectMember(ctx context.Context, userID, projectID int64) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO project_members (user_id, project_id) VALUES (?, ?)`,
		userID, projectID)
	return err
}

// RemoveProjectMember deletes a membership row.
func (db *DB) RemoveProjectMember(ctx context.Context, userID, projectID int64) error {
	return db.execExpectingRow(ctx,
		`DELETE FROM project_members WHERE user_id = ? AND project_id = ?`,
		userID, projectID)
}

// ListProjectMembers returns the member users of a project.
func (db *DB) ListProjectMembers(ctx context.Context, projectID int64) ([]*models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+prefixedUserColumns("u")+`
		 FROM users u
		 JOIN project_members m ON m.user_id = u.id
		 WHERE m.project_id = ?
		 ORDER BY u.id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func prefixedUserColumns(alias string) string {
	return alias + `.id, ` + alias + `.email, ` + alias + `.first_name, ` + alias + `.last_name, ` +
		alias + `.password_hash, ` + alias + `.role, ` + alias + `.active, ` +
		alias + `.twofa_enabled, ` + alias + `.twofa_secret, ` + alias + `.reset_code, ` +
		alias + `.reset_code_expires, ` + alias + `.created_at`
}
