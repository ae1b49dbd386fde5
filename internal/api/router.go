// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every endpoint onto a chi router.
//
// Route groups and their protection:
//   - /api/v1/health      open, no actor required
//   - /api/v1/auth        open (that is the point), strictest rate limits
//   - /api/v1/*           actor required via X-Actor-ID, general rate limit
//   - /metrics            Prometheus scrape endpoint
func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", ActorHeader, "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	generalLimit := func(next http.Handler) http.Handler { return next }
	if !h.cfg.RateLimit.Disabled {
		generalLimit = httprate.LimitByIP(h.cfg.RateLimit.Requests, h.cfg.RateLimit.Window)
	}

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", h.Health)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(generalLimit)
		r.Use(Metrics)

		r.With(h.loginLimit.Middleware).Post("/login", h.Login)
		r.With(h.loginLimit.Middleware).Post("/login/2fa", h.LoginSecondFactor)

		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/verify-reset-code", h.VerifyResetCode)
		r.Post("/reset-password", h.ResetPassword)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(generalLimit)
		r.Use(Metrics)
		r.Use(ResolveActor(h.db))

		r.Post("/auth/change-password", h.ChangePassword)
		r.Post("/auth/2fa/setup", h.SetupTwoFactor)
		r.Post("/auth/2fa/disable", h.DisableTwoFactor)
		r.Get("/auth/2fa/qr/{email}", h.TwoFactorQR)
		r.Get("/auth/2fa/status/{email}", h.TwoFactorStatus)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{userID}", h.GetUser)
			r.Put("/{userID}", h.UpdateUser)
			r.Delete("/{userID}", h.DeleteUser)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Put("/", h.UpdateProject)
				r.Delete("/", h.DeleteProject)

				r.Get("/members", h.ListProjectMembers)
				r.Post("/members", h.AddProjectMember)
				r.Delete("/members/{userID}", h.RemoveProjectMember)

				r.Route("/todos", func(r chi.Router) {
					r.Get("/", h.ListProjectTodos)
					r.Post("/", h.CreateProjectTodo)
					r.Put("/{todoID}", h.UpdateProjectTodo)
					r.Put("/{todoID}/assign", h.AssignProjectTodo)
					r.Delete("/{todoID}", h.DeleteProjectTodo)
				})

				r.Route("/documents", func(r chi.Router) {
					r.Get("/", h.ListDocuments)
					r.Post("/", h.UploadDocument)
					r.Get("/{docID}", h.DownloadDocument)
					r.Delete("/{docID}", h.DeleteDocument)
				})

				r.Route("/milestones", func(r chi.Router) {
					r.Get("/", h.ListMilestones)
					r.Post("/", h.CreateMilestone)
					r.Put("/{milestoneID}", h.UpdateMilestone)
					r.Delete("/{milestoneID}", h.DeleteMilestone)
				})

				r.Route("/contracts", func(r chi.Router) {
					r.Get("/", h.ListContracts)
					r.Post("/", h.CreateContract)
					r.Get("/{contractID}", h.GetContract)
					r.Delete("/{contractID}", h.DeleteContract)
				})
			})
		})

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", h.ListPersonalTodos)
			r.Post("/", h.CreatePersonalTodo)
			r.Put("/{todoID}", h.UpdatePersonalTodo)
			r.Delete("/{todoID}", h.DeletePersonalTodo)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
