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
	"time"

	"github.com/enconsulting/projectdesk/internal/models"
)

// CreateMilestone inserts a milestone.
func (db *DB) CreateMilestone(ctx context.Context, projectID int64, title string, dueDate *time.Time) (*models.Milestone, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO milestones (project_id, title, due_date) VALUES (?, ?, ?)`,
		projectID, title, dueDate)
	if err != nil {
		return nil, fmt.Errorf("inserting milestone: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetMilestone(ctx, id)
}

// GetMilestone fetches a milestone or ErrNotFound.
func (db *DB) GetMilestone(ctx context.Context, id int64) (*models.Milestone, error) {
	var m models.Milestone
	var done int
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, project_id, title, due_date, done, created_at FROM milestones WHERE id = ?`, id).
		Scan(&m.ID, &m.ProjectID, &m.Title, &m.DueDate, &done, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	m.Done = done != 0
	return &m, nil
}

// ListMilestones returns a project's milestones ordered by due date,
// undated last.
func (db *DB) ListMilestones(ctx context.Context, projectID int64) ([]*models.Milestone, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, project_id, title, due_date, done, created_at
		 FROM milestones WHERE project_id = ?
		 ORDER BY due_date IS NULL, due_date, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []*models.Milestone
	for rows.Next() {
		var m models.Milestone
		var done int
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.DueDate, &done, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Done = done != 0
		milestones = append(milestones, &m)
	}
	return milestones, rows.Err()
}

// UpdateMilestone updates title, due date, and done state.
func (db *DB) UpdateMilestone(ctx context.Context, id int64, title string, dueDate *time.Time, done bool) error {
	return db.execExpectingRow(ctx,
		`UPDATE milestones SET title = ?, due_date = ?, done = ? WHERE id = ?`,
		title, dueDate, boolToInt(done), id)
}

// DeleteMilestone removes a milestone.
func (db *DB) DeleteMilestone(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx, `DELETE FROM milestones WHERE id = ?`, id)
}

// CreateContract inserts a contract record.
func (db *DB) CreateContract(ctx context.Context, projectID int64, title, body string, creatorID int64) (*models.Contract, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO contracts (project_id, title, body, created_by) VALUES (?, ?, ?, ?)`,
		projectID, title, body, creatorID)
	if err != nil {
		return nil, fmt.Errorf("inserting contract: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetContract(ctx, id)
}

// GetContract fetches a contract or ErrNotFound.
func (db *DB) GetContract(ctx context.Context, id int64) (*models.Contract, error) {
	var c models.Contract
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, project_id, title, body, created_by, created_at FROM contracts WHERE id = ?`, id).
		Scan(&c.ID, &c.ProjectID, &c.Title, &c.Body, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListContracts returns a project's contracts.
func (db *DB) ListContracts(ctx context.Context, projectID int64) ([]*models.Contract, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, project_id, title, body, created_by, created_at
		 FROM contracts WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		var c models.Contract
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Title, &c.Body, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		contracts = append(contracts, &c)
	}
	return contracts, rows.Err()
}

// DeleteContract removes a contract.
func (db *DB) DeleteContract(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx, `DELETE FROM contracts WHERE id = ?`, id)
}
