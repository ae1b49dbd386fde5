// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/enconsulting/projectdesk/internal/models"
)

// resetCodeMax bounds the numeric range of reset codes. Codes are always
// rendered as six digits, leading zeros included.
var resetCodeMax = big.NewInt(1_000_000)

// GenerateResetCode produces a six-digit code from a CSPRNG.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, resetCodeMax)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CheckResetCode validates a submitted code against the user's stored
// reset state. The checks run in a fixed order:
//
//  1. No code outstanding: ErrNoResetCode.
//  2. Code expired (the exact expiry instant counts as expired):
//     ErrResetCodeExpired. The caller must clear the stored pair.
//  3. Code mismatch: ErrInvalidResetCode. The stored pair is retained so
//     the user can retry a typo without requesting a new code.
//
// A nil return means the code matched and is still live; it is not
// consumed here.
func CheckResetCode(user *models.User, code string, now time.Time) error {
	if !user.HasResetCode() {
		return models.ErrNoResetCode
	}
	if !now.Before(*user.ResetCodeExpires) {
		return models.ErrResetCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(*user.ResetCode), []byte(code)) != 1 {
		return models.ErrInvalidResetCode
	}
	return nil
}
