// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/enconsulting/projectdesk/internal/logging"
	"github.com/enconsulting/projectdesk/internal/models"
)

// ErrLockoutNotFound is returned when no lockout entry exists for a subject.
var ErrLockoutNotFound = errors.New("lockout entry not found")

// LockoutConfig holds configuration for the account lockout system.
type LockoutConfig struct {
	// Enabled controls whether lockout is active.
	Enabled bool

	// MaxAttempts is the number of failed attempts before lockout.
	MaxAttempts int

	// LockoutDuration is the base lockout period. Each subsequent lockout
	// of the same subject doubles it, up to MaxLockoutDuration.
	LockoutDuration time.Duration

	// MaxLockoutDuration caps the exponential backoff.
	MaxLockoutDuration time.Duration

	// CleanupInterval is how often expired entries are purged.
	CleanupInterval time.Duration
}

// DefaultLockoutConfig returns the defaults used when none are configured.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		Enabled:            true,
		MaxAttempts:        5,
		LockoutDuration:    15 * time.Minute,
		MaxLockoutDuration: 24 * time.Hour,
		CleanupInterval:    5 * time.Minute,
	}
}

// LockoutEntry tracks failed verification attempts for one subject
// (an account email).
type LockoutEntry struct {
	Subject        string
	FailedAttempts int
	LastAttempt    time.Time
	LockoutCount   int
	LockedUntil    time.Time
}

// IsLocked reports whether the entry is currently locked.
func (e *LockoutEntry) IsLocked() bool {
	return time.Now().Before(e.LockedUntil)
}

// LockoutStore persists lockout state.
type LockoutStore interface {
	GetEntry(ctx context.Context, subject string) (*LockoutEntry, error)
	SaveEntry(ctx context.Context, entry *LockoutEntry) error
	DeleteEntry(ctx context.Context, subject string) error
	CleanupExpired(ctx context.Context) (int, error)
}

// LockoutManager throttles repeated credential failures. Every failed
// password, TOTP, or reset-code verification counts against the subject;
// a successful login clears the slate.
type LockoutManager struct {
	config LockoutConfig
	store  LockoutStore
}

// NewLockoutManager creates a lockout manager backed by store.
func NewLockoutManager(store LockoutStore, config LockoutConfig) *LockoutManager {
	if config.MaxAttempts <= 0 {
		config = DefaultLockoutConfig()
	}
	return &LockoutManager{config: config, store: store}
}

// CheckLocked returns whether the subject is locked and for how much longer.
func (m *LockoutManager) CheckLocked(ctx context.Context, subject string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return false, 0, nil
	}

	entry, err := m.store.GetEntry(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrLockoutNotFound) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("check lockout: %w", err)
	}
	if !entry.IsLocked() {
		return false, 0, nil
	}
	return true, time.Until(entry.LockedUntil), nil
}

// RecordFailure records a failed verification attempt. When the attempt
// crosses the threshold the subject is locked and models.ErrLocked is
// returned; the lockout duration doubles with each repeat offense.
func (m *LockoutManager) RecordFailure(ctx context.Context, subject string) error {
	if !m.config.Enabled {
		return nil
	}

	entry, err := m.store.GetEntry(ctx, subject)
	if err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("record failure: %w", err)
	}
	if entry == nil {
		entry = &LockoutEntry{Subject: subject}
	}
	if entry.IsLocked() {
		return models.ErrLocked
	}

	now := time.Now()
	entry.FailedAttempts++
	entry.LastAttempt = now

	locked := entry.FailedAttempts >= m.config.MaxAttempts
	if locked {
		duration := m.lockoutDuration(entry.LockoutCount)
		entry.LockedUntil = now.Add(duration)
		entry.LockoutCount++
		entry.FailedAttempts = 0

		logging.Ctx(ctx).Warn().
			Str("subject", subject).
			Dur("duration", duration).
			Int("lockout_count", entry.LockoutCount).
			Msg("account locked after repeated failures")
		RecordLockout()
	}

	if err := m.store.SaveEntry(ctx, entry); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	if locked {
		return models.ErrLocked
	}
	return nil
}

// RecordSuccess clears the subject's failure history.
func (m *LockoutManager) RecordSuccess(ctx context.Context, subject string) error {
	if !m.config.Enabled {
		return nil
	}
	if err := m.store.DeleteEntry(ctx, subject); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

// ClearLockout removes a lockout regardless of state (admin action).
func (m *LockoutManager) ClearLockout(ctx context.Context, subject string) error {
	if err := m.store.DeleteEntry(ctx, subject); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}
	logging.Ctx(ctx).Info().Str("subject", subject).Msg("lockout cleared")
	return nil
}

func (m *LockoutManager) lockoutDuration(lockoutCount int) time.Duration {
	duration := m.config.LockoutDuration
	if lockoutCount > 0 {
		duration *= time.Duration(1 << lockoutCount)
	}
	if duration > m.config.MaxLockoutDuration {
		duration = m.config.MaxLockoutDuration
	}
	return duration
}

// RunCleanup purges expired entries on a ticker until ctx is canceled.
// The supervisor runs this as a service.
func (m *LockoutManager) RunCleanup(ctx context.Context) error {
	interval := m.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			count, err := m.store.CleanupExpired(ctx)
			if err != nil {
				logging.Error().Err(err).Msg("lockout cleanup failed")
				continue
			}
			if count > 0 {
				logging.Debug().Int("count", count).Msg("purged expired lockout entries")
			}
		}
	}
}

// MemoryLockoutStore implements LockoutStore in memory. Suitable for a
// single-instance deployment, which is how the application runs.
type MemoryLockoutStore struct {
	mu      sync.RWMutex
	entries map[string]*LockoutEntry
}

// NewMemoryLockoutStore creates an empty in-memory lockout store.
func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{entries: make(map[string]*LockoutEntry)}
}

// GetEntry retrieves a lockout entry.
func (s *MemoryLockoutStore) GetEntry(_ context.Context, subject string) (*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[subject]
	if !ok {
		return nil, ErrLockoutNotFound
	}
	copied := *entry
	return &copied, nil
}

// SaveEntry persists a lockout entry.
func (s *MemoryLockoutStore) SaveEntry(_ context.Context, entry *LockoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	s.entries[entry.Subject] = &copied
	return nil
}

// DeleteEntry removes a lockout entry.
func (s *MemoryLockoutStore) DeleteEntry(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[subject]; !ok {
		return ErrLockoutNotFound
	}
	delete(s.entries, subject)
	return nil
}

// CleanupExpired removes entries that are unlocked and stale for 24h.
func (s *MemoryLockoutStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := time.Now().Add(-24 * time.Hour)
	count := 0
	for subject, entry := range s.entries {
		if !entry.IsLocked() && entry.LastAttempt.Before(threshold) {
			delete(s.entries, subject)
			count++
		}
	}
	return count, nil
}
