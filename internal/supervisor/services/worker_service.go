// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package services

import "context"

// Runner is any component with a context-bound run loop. Satisfied by
// *mailer.Outbox (Run) and, via RunFunc, the lockout cleanup loop.
type Runner interface {
	Run(ctx context.Context) error
}

// RunFunc adapts a bare function to Runner.
type RunFunc func(ctx context.Context) error

// Run implements Runner.
func (f RunFunc) Run(ctx context.Context) error { return f(ctx) }

// WorkerService wraps a Runner as a supervised service.
type WorkerService struct {
	runner Runner
	name   string
}

// NewWorkerService creates a supervised wrapper around runner. The name
// identifies the worker in suture's logs.
func NewWorkerService(name string, runner Runner) *WorkerService {
	return &WorkerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (w *WorkerService) Serve(ctx context.Context) error {
	return w.runner.Run(ctx)
}

// String implements fmt.Stringer for suture's log messages.
func (w *WorkerService) String() string {
	return w.name
}
