// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/thejerf/suture/v4"
)

func TestWorkerServiceInterface(t *testing.T) {
	t.Parallel()
	var _ suture.Service = (*WorkerService)(nil)
}

func TestWorkerServiceDelegates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("worker failed")
	svc := NewWorkerService("test-worker", RunFunc(func(ctx context.Context) error {
		return wantErr
	}))

	if got := svc.Serve(context.Background()); !errors.Is(got, wantErr) {
		t.Fatalf("Serve() = %v, want %v", got, wantErr)
	}
	if svc.String() != "test-worker" {
		t.Fatalf("String() = %q, want test-worker", svc.String())
	}
}

func TestWorkerServiceStopsOnCancel(t *testing.T) {
	t.Parallel()

	svc := NewWorkerService("blocker", RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve() = %v, want context.Canceled", err)
	}
}
