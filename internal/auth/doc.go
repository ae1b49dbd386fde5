// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

// Package auth implements the credential lifecycle: password hashing and
// verification (Argon2id), two-factor enrollment and validation (TOTP),
// password-reset codes, and account lockout after repeated failures.
//
// The Service type is the entry point. It is constructed with a UserStore
// (satisfied by *database.DB), a ResetNotifier for outbound reset mail,
// and an AuthConfig; it holds no global state. All verification paths are
// constant-time where the compared material is secret.
//
// Login is a two-step flow when two-factor is enabled: Login verifies the
// password and reports SecondFactorRequired, and LoginSecondFactor
// completes the session with a TOTP code. Failures on either step feed
// the lockout manager.
package auth
