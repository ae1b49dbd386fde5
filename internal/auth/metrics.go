// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttemptsTotal counts login attempts by outcome. Outcomes:
	// success, second_factor_required, not_found, bad_password, inactive,
	// locked, error.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// SecondFactorTotal counts TOTP verification attempts by outcome.
	SecondFactorTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_second_factor_total",
			Help: "Total number of second-factor verifications by outcome",
		},
		[]string{"outcome"},
	)

	// ResetRequestsTotal counts password-reset requests. The "unknown"
	// outcome is counted internally but never revealed to the caller.
	ResetRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_reset_requests_total",
			Help: "Total number of password-reset requests by outcome",
		},
		[]string{"outcome"},
	)

	// LockoutsTotal counts accounts locked after repeated failures.
	LockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_lockouts_total",
			Help: "Total number of account lockouts",
		},
	)

	// PasswordHashDuration tracks Argon2id hashing latency.
	PasswordHashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_password_hash_duration_seconds",
			Help:    "Duration of password hash operations in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// RecordLogin increments the login counter for an outcome.
func RecordLogin(outcome string) {
	LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordSecondFactor increments the second-factor counter for an outcome.
func RecordSecondFactor(outcome string) {
	SecondFactorTotal.WithLabelValues(outcome).Inc()
}

// RecordResetRequest increments the reset-request counter for an outcome.
func RecordResetRequest(outcome string) {
	ResetRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordLockout increments the lockout counter.
func RecordLockout() {
	LockoutsTotal.Inc()
}
