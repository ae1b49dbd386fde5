// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package mailer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EnqueuedTotal counts mails placed on the outbox.
	EnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailer_enqueued_total",
			Help: "Total number of mails enqueued on the outbox",
		},
	)

	// DeliveriesTotal counts delivery attempts by outcome: delivered,
	// failed, malformed.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailer_deliveries_total",
			Help: "Total number of outbox delivery attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordEnqueued increments the enqueue counter.
func RecordEnqueued() {
	EnqueuedTotal.Inc()
}

// RecordDelivery increments the delivery counter for an outcome.
func RecordDelivery(outcome string) {
	DeliveriesTotal.WithLabelValues(outcome).Inc()
}
