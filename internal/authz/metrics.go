// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts authorization decisions by role, object,
	// action, and outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "object", "action", "decision"},
	)

	// DeniedTotal specifically tracks denied decisions for alerting.
	DeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_denied_total",
			Help: "Total number of denied authorization decisions",
		},
		[]string{"role", "object", "action"},
	)

	// DecisionDuration tracks decision latency. Most decisions resolve in
	// microseconds; membership-scoped ones include a storage round trip.
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"role"},
	)
)

func recordDecision(role, object, action string, allowed bool, duration time.Duration) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	DecisionsTotal.WithLabelValues(role, object, action, decision).Inc()
	if !allowed {
		DeniedTotal.WithLabelValues(role, object, action).Inc()
	}
	DecisionDuration.WithLabelValues(role).Observe(duration.Seconds())
}
