// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

// Package models defines the domain types shared across the application:
// users and their credential state, projects and memberships, documents,
// to-dos, milestones, contracts, and the application error taxonomy.
package models

import "time"

// Role is the single axis of baseline authorization. Every user carries
// exactly one role; there is no multi-role composition and no per-user
// permission override.
type Role string

const (
	// RoleAdmin has full access to every resource regardless of membership.
	RoleAdmin Role = "admin"

	// RoleEmployee works inside assigned projects and owns what it creates.
	RoleEmployee Role = "employee"

	// RoleGuest is universally read-only, even inside assigned projects.
	RoleGuest Role = "guest"
)

// DefaultRole is assigned to users created without an explicit role.
const DefaultRole = RoleEmployee

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleGuest:
		return true
	}
	return false
}

// User is an actor in the system. The credential fields are only ever
// touched by the auth package; handlers treat them as opaque.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Active       bool   `json:"active"`

	// Second-factor state. TwoFASecret is present only while 2FA is
	// configured; it is overwritten wholesale on every setup call.
	TwoFAEnabled bool    `json:"twofa_enabled"`
	TwoFASecret  *string `json:"-"`

	// Password-reset state. ResetCode and ResetCodeExpires are always
	// both set or both nil; a code must never outlive its expiry guard.
	ResetCode        *string    `json:"-"`
	ResetCodeExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsGuest reports whether the user carries the guest role.
func (u *User) IsGuest() bool { return u.Role == RoleGuest }

// HasResetCode reports whether a reset code is currently stored.
func (u *User) HasResetCode() bool {
	return u.ResetCode != nil && u.ResetCodeExpires != nil
}
