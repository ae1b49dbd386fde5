// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/enconsulting/projectdesk/internal/config"
	"github.com/enconsulting/projectdesk/internal/logging"
	"github.com/enconsulting/projectdesk/internal/models"
)

// UserStore is the storage surface the service needs. *database.DB
// satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetResetCode(ctx context.Context, id int64, code string, expires time.Time) error
	ClearResetCode(ctx context.Context, id int64) error
	ResetPasswordAndClearCode(ctx context.Context, id int64, passwordHash string) error
	SetTwoFactorSecret(ctx context.Context, id int64, secret string, enable bool) error
	EnableTwoFactor(ctx context.Context, id int64) error
	DisableTwoFactor(ctx context.Context, id int64) error
}

// ResetNotifier delivers password-reset codes to users. The mailer
// package implements it with an outbox so SMTP latency never blocks the
// request path.
type ResetNotifier interface {
	EnqueuePasswordReset(ctx context.Context, email, code string, expires time.Time) error
}

// LoginResult is the outcome of a successful first authentication step.
type LoginResult struct {
	// User is set when authentication is complete.
	User *models.User
	// SecondFactorRequired means the password was correct but the account
	// has two-factor enabled; the client must call LoginSecondFactor.
	SecondFactorRequired bool
}

// Service implements the credential lifecycle operations.
type Service struct {
	store    UserStore
	notifier ResetNotifier
	lockout  *LockoutManager
	cfg      config.AuthConfig
	params   Argon2Params

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewService constructs the auth service.
func NewService(store UserStore, notifier ResetNotifier, lockout *LockoutManager, cfg config.AuthConfig) *Service {
	params := Argon2Params{
		Memory:      cfg.Argon2Memory,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
		SaltLength:  cfg.Argon2SaltLength,
		KeyLength:   cfg.Argon2KeyLength,
	}
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 ||
		params.SaltLength == 0 || params.KeyLength == 0 {
		params = DefaultArgon2Params()
	}

	return &Service{
		store:    store,
		notifier: notifier,
		lockout:  lockout,
		cfg:      cfg,
		params:   params,
		now:      time.Now,
	}
}

func (s *Service) hashPassword(password string) (string, error) {
	start := time.Now()
	hash, err := HashPassword(password, s.params)
	PasswordHashDuration.Observe(time.Since(start).Seconds())
	return hash, err
}

// Signup registers a new account. The role defaults to employee; only an
// admin can promote it afterwards.
func (s *Service) Signup(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         models.DefaultRole,
		Active:       true,
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login verifies an email/password pair. A user that does not exist is
// reported as models.ErrNotFound, distinct from a wrong password; the
// password-reset flow is the anti-enumeration surface, not login.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if locked, _, err := s.lockout.CheckLocked(ctx, email); err != nil {
		return nil, err
	} else if locked {
		RecordLogin("locked")
		return nil, models.ErrLocked
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RecordLogin("not_found")
		}
		return nil, err
	}
	if !user.Active {
		RecordLogin("inactive")
		return nil, models.ErrAccountInactive
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		RecordLogin("error")
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		RecordLogin("bad_password")
		if err := s.lockout.RecordFailure(ctx, email); err != nil {
			if errors.Is(err, models.ErrLocked) {
				return nil, err
			}
			logging.Ctx(ctx).Error().Err(err).Msg("failed to record login failure")
		}
		return nil, models.ErrInvalidCredential
	}

	if user.TwoFAEnabled {
		RecordLogin("second_factor_required")
		return &LoginResult{SecondFactorRequired: true}, nil
	}

	if err := s.lockout.RecordSuccess(ctx, email); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to clear lockout state")
	}
	RecordLogin("success")
	return &LoginResult{User: user}, nil
}

// LoginSecondFactor completes a two-factor login with a TOTP code. When
// enrollment is configured to require confirmation, the first valid code
// seen here also flips the account to enabled.
func (s *Service) LoginSecondFactor(ctx context.Context, email, code string) (*models.User, error) {
	if locked, _, err := s.lockout.CheckLocked(ctx, email); err != nil {
		return nil, err
	} else if locked {
		RecordSecondFactor("locked")
		return nil, models.ErrLocked
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.TwoFASecret == nil {
		return nil, models.ErrTwoFactorNotEnabled
	}

	if !ValidateTOTP(code, *user.TwoFASecret, s.now()) {
		RecordSecondFactor("invalid")
		if err := s.lockout.RecordFailure(ctx, email); err != nil {
			if errors.Is(err, models.ErrLocked) {
				return nil, err
			}
			logging.Ctx(ctx).Error().Err(err).Msg("failed to record second-factor failure")
		}
		return nil, models.ErrInvalidSecondFactor
	}

	if !user.TwoFAEnabled {
		if err := s.store.EnableTwoFactor(ctx, user.ID); err != nil {
			return nil, err
		}
		user.TwoFAEnabled = true
		logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("two-factor enrollment confirmed")
	}

	if err := s.lockout.RecordSuccess(ctx, email); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to clear lockout state")
	}
	RecordSecondFactor("success")
	return user, nil
}

// SetupTwoFactor generates and stores a fresh TOTP secret for the
// account, replacing any existing one. Unless confirm-first-verify is
// configured, the account is marked enabled immediately.
func (s *Service) SetupTwoFactor(ctx context.Context, email string) (*TOTPEnrollment, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	enrollment, err := GenerateTOTP(s.cfg.TOTPIssuer, user.Email)
	if err != nil {
		return nil, err
	}

	enable := !s.cfg.TwoFactorConfirmFirstVerify
	if err := s.store.SetTwoFactorSecret(ctx, user.ID, enrollment.Secret, enable); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("user_id", user.ID).
		Bool("enabled_immediately", enable).
		Msg("two-factor secret issued")
	return enrollment, nil
}

// DisableTwoFactor turns off two-factor for the account. The current
// password must verify.
func (s *Service) DisableTwoFactor(ctx context.Context, email, password string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("disable two-factor: %w", err)
	}
	if !ok {
		return models.ErrInvalidCredential
	}

	if err := s.store.DisableTwoFactor(ctx, user.ID); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("two-factor disabled")
	return nil
}

// TwoFactorStatus reports whether the account has two-factor enabled.
func (s *Service) TwoFactorStatus(ctx context.Context, email string) (bool, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return user.TwoFAEnabled, nil
}

// TwoFactorQR renders the account's provisioning URI as a PNG QR code.
func (s *Service) TwoFactorQR(ctx context.Context, email string, size int) ([]byte, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.TwoFASecret == nil {
		return nil, models.ErrTwoFactorNotEnabled
	}
	return TOTPQRCode(s.cfg.TOTPIssuer, user.Email, *user.TwoFASecret, size)
}

// ForgotPassword starts a password reset. The response is identical
// whether or not the email belongs to an account, so the endpoint cannot
// be used to enumerate users. A fresh code replaces any outstanding one.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			RecordResetRequest("unknown")
			logging.Ctx(ctx).Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := GenerateResetCode()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.resetCodeTTL())

	if err := s.store.SetResetCode(ctx, user.ID, code, expires); err != nil {
		return err
	}
	if err := s.notifier.EnqueuePasswordReset(ctx, user.Email, code, expires); err != nil {
		return err
	}

	RecordResetRequest("sent")
	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("password reset code issued")
	return nil
}

// VerifyResetCode checks a submitted reset code without consuming it, so
// clients can validate before showing the new-password form. An expired
// code is cleared; a mismatched one is retained for retry.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Indistinguishable from an account with no code outstanding.
			return models.ErrNoResetCode
		}
		return err
	}
	return s.checkResetCode(ctx, user, code)
}

// ResetPassword consumes a valid reset code and sets the new password.
// The hash update and the code clear happen in a single storage write.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNoResetCode
		}
		return err
	}
	if err := s.checkResetCode(ctx, user, code); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := s.store.ResetPasswordAndClearCode(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.lockout.RecordSuccess(ctx, email); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to clear lockout state")
	}
	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *Service) checkResetCode(ctx context.Context, user *models.User, code string) error {
	err := CheckResetCode(user, code, s.now())
	switch {
	case errors.Is(err, models.ErrResetCodeExpired):
		if clearErr := s.store.ClearResetCode(ctx, user.ID); clearErr != nil {
			return clearErr
		}
		return err
	case errors.Is(err, models.ErrInvalidResetCode):
		if lockErr := s.lockout.RecordFailure(ctx, user.Email); lockErr != nil {
			if errors.Is(lockErr, models.ErrLocked) {
				return lockErr
			}
			logging.Ctx(ctx).Error().Err(lockErr).Msg("failed to record reset-code failure")
		}
		return err
	default:
		return err
	}
}

// ChangePassword updates the password for an authenticated user. The
// current password must verify, and the new one must differ from it.
func (s *Service) ChangePassword(ctx context.Context, email, current, newPassword string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return models.ErrInvalidCredential
	}
	if newPassword == current {
		return models.ErrSamePassword
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *Service) resetCodeTTL() time.Duration {
	if s.cfg.ResetCodeTTL > 0 {
		return s.cfg.ResetCodeTTL
	}
	return 15 * time.Minute
}
