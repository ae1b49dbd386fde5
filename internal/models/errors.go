// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

// errors.go - Application error taxonomy
//
// Every failure the core can produce maps onto one of these sentinels.
// The API layer translates them into HTTP status codes; nothing below the
// API layer knows about HTTP.
package models

import "errors"

var (
	// ErrNotFound indicates an absent actor, project, or resource.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is an authorization denial. It deliberately carries no
	// detail beyond "forbidden" so callers cannot probe resource existence.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredential indicates a password mismatch at login or
	// change-password time.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrInvalidSecondFactor indicates a bad TOTP code.
	ErrInvalidSecondFactor = errors.New("invalid second factor code")

	// ErrTwoFactorNotEnabled indicates a 2FA operation on a user that has
	// not completed 2FA setup.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication not enabled")

	// ErrNoResetCode indicates a reset-code check with no code requested.
	ErrNoResetCode = errors.New("no reset code requested")

	// ErrResetCodeExpired indicates the stored reset code has passed its
	// expiry; the code/expiry pair is cleared when this is returned.
	ErrResetCodeExpired = errors.New("reset code has expired")

	// ErrInvalidResetCode indicates a reset-code mismatch. The stored code
	// is retained so the user may retry.
	ErrInvalidResetCode = errors.New("invalid reset code")

	// ErrEmailTaken indicates a duplicate email at signup.
	ErrEmailTaken = errors.New("email already registered")

	// ErrLocked indicates the subject is locked out after repeated failed
	// verification attempts.
	ErrLocked = errors.New("account temporarily locked")

	// ErrAccountInactive indicates a deactivated user account.
	ErrAccountInactive = errors.New("user account is inactive")

	// ErrSamePassword indicates a change-password request where the new
	// password equals the current one.
	ErrSamePassword = errors.New("new password must differ from current password")
)
