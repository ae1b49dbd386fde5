// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/enconsulting/projectdesk/internal/database"
	"github.com/enconsulting/projectdesk/internal/logging"
	"github.com/enconsulting/projectdesk/internal/models"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ActorHeader identifies the acting user on protected routes. Session
// and token transport are handled by the fronting gateway; the backend
// trusts this header.
const ActorHeader = "X-Actor-ID"

// ActorFromContext returns the resolved acting user, if any.
func ActorFromContext(ctx context.Context) (*models.User, bool) {
	actor, ok := ctx.Value(actorContextKey).(*models.User)
	return actor, ok
}

// withActor stashes the actor for handlers downstream.
func withActor(ctx context.Context, actor *models.User) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// RequestID attaches a request ID to the context and response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ResolveActor loads the acting user from the ActorHeader and rejects
// requests without a valid, active actor.
func ResolveActor(db *database.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(ActorHeader)
			if raw == "" {
				respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
				return
			}

			actor, err := db.GetUserByID(r.Context(), id)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
				return
			}
			if !actor.Active {
				respondAppError(w, models.ErrAccountInactive)
				return
			}

			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
		})
	}
}

// ipLimiter tracks a token-bucket limiter per client IP.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter rate-limits by client IP with a token bucket. It is used
// on the login endpoints, which get a much stricter budget than the rest
// of the API.
type LoginLimiter struct {
	mu       sync.Mutex
	visitors map[string]*ipLimiter
	rate     rate.Limit
	burst    int
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoginLimiter allows requests per window for each client IP. Stop
// must be called to end the background cleanup.
func NewLoginLimiter(requests int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		visitors: make(map[string]*ipLimiter),
		rate:     rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *LoginLimiter) visitor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (l *LoginLimiter) cleanup() {
	defer close(l.done)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			for ip, v := range l.visitors {
				if time.Since(v.lastSeen) > 10*time.Minute {
					delete(l.visitors, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (l *LoginLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware enforces the limit.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.visitor(ip).Allow() {
			respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Metrics records request counts and latency per route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		recordHTTPRequest(r.Method, routePattern(r), recorder.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
