// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"testing"
	"time"
)

func TestLoginLimiterStopEndsCleanup(t *testing.T) {
	l := NewLoginLimiter(5, time.Minute)
	l.Stop()

	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup goroutine still running after Stop")
	}

	// Repeated Stop must not panic.
	l.Stop()
}
