// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

// Package main is the entry point for the Projectdesk server.
//
// The server initializes components in order:
//
//  1. Configuration: koanf v2 layered defaults, config.yaml, environment
//  2. Database: SQLite via modernc.org/sqlite
//  3. Authorization engine: embedded casbin model and policy
//  4. Auth service: argon2id hashing, TOTP, reset codes, lockout
//  5. Mail outbox: Watermill GoChannel queue feeding an SMTP sender
//  6. Supervisor tree: background workers and the HTTP server
//
// Configuration is loaded with the PROJECTDESK_ environment prefix; see
// internal/config for the full key list.
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting connections, waits for in-flight requests up to the
// configured shutdown timeout, then closes the outbox and database.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/enconsulting/projectdesk/internal/api"
	"github.com/enconsulting/projectdesk/internal/auth"
	"github.com/enconsulting/projectdesk/internal/authz"
	"github.com/enconsulting/projectdesk/internal/config"
	"github.com/enconsulting/projectdesk/internal/database"
	"github.com/enconsulting/projectdesk/internal/logging"
	"github.com/enconsulting/projectdesk/internal/mailer"
	"github.com/enconsulting/projectdesk/internal/supervisor"
	"github.com/enconsulting/projectdesk/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting Projectdesk")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	engine, err := authz.NewEngine(db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization engine")
	}

	sender := mailer.NewSMTPSender(cfg.SMTP)
	outbox := mailer.NewOutbox(sender)
	defer func() {
		if err := outbox.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing mail outbox")
		}
	}()

	lockout := auth.NewLockoutManager(auth.NewMemoryLockoutStore(), auth.LockoutConfig{
		Enabled:            cfg.Auth.LockoutEnabled,
		MaxAttempts:        cfg.Auth.LockoutMaxAttempts,
		LockoutDuration:    cfg.Auth.LockoutDuration,
		MaxLockoutDuration: cfg.Auth.LockoutMaxDuration,
		CleanupInterval:    5 * time.Minute,
	})

	authSvc := auth.NewService(db, outbox, lockout, cfg.Auth)

	handler := api.NewHandler(db, engine, authSvc, cfg)
	defer handler.Close()
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.NewRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddBackgroundService(services.NewWorkerService("mail-outbox", outbox))
	tree.AddBackgroundService(services.NewWorkerService("lockout-cleanup",
		services.RunFunc(lockout.RunCleanup)))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Projectdesk stopped")
}
