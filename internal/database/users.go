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
	"strings"
	"time"

	"github.com/enconsulting/projectdesk/internal/models"
)

const userColumns = `id, email, first_name, last_name, password_hash, role, active,
	twofa_enabled, twofa_secret, reset_code, reset_code_expires, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var active, twofaEnabled int
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.Role, &active, &twofaEnabled, &u.TwoFASecret, &u.ResetCode,
		&u.ResetCodeExpires, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	u.Active = active != 0
	u.TwoFAEnabled = twofaEnabled != 0
	return &u, nil
}

// CreateUser inserts a new user. A duplicate email maps to ErrEmailTaken.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, first_name, last_name, password_hash, role, active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role, boolToInt(u.Active))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrEmailTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, id)
}

// GetUserByID fetches a user or ErrNotFound.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email or ErrNotFound.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// ListUsers returns all users ordered by id.
func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
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

// UpdateUserProfile updates the mutable profile fields.
func (db *DB) UpdateUserProfile(ctx context.Context, id int64, firstName, lastName string) error {
	return db.execExpectingRow(ctx,
		`UPDATE users SET first_name = ?, last_name = ? WHERE id = ?`,
		firstName, lastName, id)
}

// UpdateUserRole changes a user's role (administrative act).
func (db *DB) UpdateUserRole(ctx context.Context, id int64, role models.Role) error {
	return db.execExpectingRow(ctx,
		`UPDATE users SET role = ? WHERE id = ?`, role, id)
}

// DeleteUser removes a user.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx, `DELETE FROM users WHERE id = ?`, id)
}

// UpdatePassword replaces the stored credential.
func (db *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return db.execExpectingRow(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

// SetResetCode stores a reset code and its expiry, overwriting any prior
// pair. Requesting a new code invalidates the old one.
func (db *DB) SetResetCode(ctx context.Context, id int64, code string, expires time.Time) error {
	return db.execExpectingRow(ctx,
		`UPDATE users SET reset_code = ?, reset_code_expires = ? WHERE id = ?`,
		code, expires.UTC(), id)
}

// ClearResetCode nulls the code/expiry pair together.
func (db *DB) ClearResetCode(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx,
		`UPDATE users SET reset_code = NULL, reset_code_expires = NULL WHERE id = ?`, id)
}

// ResetPasswordAndClearCode updates the credential and consumes the reset
// code in a single statement so a code can never survive the password it
// authorized.
func (db *DB) ResetPasswordAndClearCode(ctx context.Context, id int64, passwordHash string) error {
	return db.execExpectingRow(ctx,
		`UPDATE users SET password_hash = ?, reset_code = NULL, reset_code_expires = NULL
		 WHERE id = ?`, passwordHash, id)
}

// SetTwoFactorSecret stores a fresh shared secret, overwriting any prior
// one, and optionally flips the enabled flag in the same statement.
func (db *DB) SetTwoFactorSecret(ctx context.Context, id int64, secret string, enable bool) error {
	if enable {
		return db.execExpectingRow(ctx,
			`UPDATE users SET twofa_secret = ?, twofa_enabled = 1 WHERE id = ?`, secret, id)
	}
	return db.execExpectingRow(ctx,
		`UPDATE users SET twofa_secret = ? WHERE id = ?`, secret, id)
}

// EnableTwoFactor flips the enabled flag for an already stored secret.
func (db *DB) EnableTwoFactor(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx,
		`UPDATE users SET twofa_enabled = 1 WHERE id = ? AND twofa_secret IS NOT NULL`, id)
}

// DisableTwoFactor clears both the flag and the secret.
func (db *DB) DisableTwoFactor(ctx context.Context, id int64) error {
	return db.execExpectingRow(ctx,
		`UPDATE users SET twofa_enabled = 0, twofa_secret = NULL WHERE id = ?`, id)
}

// execExpectingRow runs a statement that must affect exactly one row,
// mapping zero rows to ErrNotFound.
func (db *DB) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	// modernc/sqlite surfaces constraint failures as formatted error
	// strings; there is no typed error to unwrap.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
