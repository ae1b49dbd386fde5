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

// CreateDocument stores an uploaded file. UploadedBy is fixed here and
// never updated afterwards.
func (db *DB) CreateDocument(ctx context.Context, projectID int64, filename string, content []byte, uploaderID int64) (*models.Document, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO documents (project_id, filename, content, size, uploaded_by)
		 VALUES (?, ?, ?, ?, ?)`,
		projectID, filename, content, len(content), uploaderID)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetDocument(ctx, id)
}

// GetDocument fetches a document including content, or ErrNotFound.
func (db *DB) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var d models.Document
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, project_id, filename, content, size, uploaded_by, uploaded_at
		 FROM documents WHERE id = ?`, id).
		Scan(&d.ID, &d.ProjectID, &d.Filename, &d.Content, &d.Size, &d.UploadedBy, &d.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListDocuments returns a project's documents without their content blobs.
func (db *DB) ListDocuments(ctx context.Context, projectID int64) ([]*models.Document, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, project_id, filename, size, uploaded_by, uploaded_at
		 FROM documents WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.Size, &d.UploadedBy, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document.
func (db *DB) DeleteDocument(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx, `DELETE FROM documents WHERE id = ?`, id)
}
