// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/enconsulting/projectdesk/internal/config"
	"github.com/enconsulting/projectdesk/internal/models"
)

// fakeUserStore implements UserStore in memory.
type fakeUserStore struct {
	users  map[string]*models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserStore) byID(id int64) *models.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	if _, ok := f.users[u.Email]; ok {
		return nil, models.ErrEmailTaken
	}
	copied := *u
	copied.ID = f.nextID
	f.nextID++
	f.users[u.Email] = &copied
	out := copied
	return &out, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	u := f.byID(id)
	if u == nil {
		return models.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserStore) SetResetCode(_ context.Context, id int64, code string, expires time.Time) error {
	u := f.byID(id)
	if u == nil {
		return models.ErrNotFound
	}
	u.ResetCode = &code
	u.ResetCodeExpires = &expires
	return nil
}

func (f *fakeUserStore) ClearResetCode(_ context.Context, id int64) error {
	u := f.byID(id)
	if u == nil {
		return models.ErrNotFound
	}
	u.ResetCode = nil
	u.ResetCodeExpires = nil
	return nil
}

func (f *fakeUserStore) ResetPasswordAndClearCode(_ context.Context, id int64, hash string) error {
	u := f.byID(id)
	if u == nil {
		return models.ErrNotFound
	}
	u.PasswordHash = hash
	u.ResetCode = nil
	u.ResetCodeExpires = nil
	return nil
}

func (f *fakeUserStore) SetTwoFactorSecret(_ context.Context, id int64, secret string, enable bool) error {
	u := f.byID(id)
	if u == nil {
		return models.ErrNotFound
	}
	u.TwoFASecret = &secret
	u.TwoFAEnabled = enable
	return nil
}

func (f *fakeUserStore) EnableTwoFactor(_ context.Context, id int64) error {
	u := f.byID(id)
	if u == nil {
		return models.ErrNotFound
	}
	u.TwoFAEnabled = true
	return nil
}

func (f *fakeUserStore) DisableTwoFactor(_ context.Context, id int64) error {
	u := f.byID(id)
	if u == nil {
		return models.ErrNotFound
	}
	u.TwoFASecret = nil
	u.TwoFAEnabled = false
	return nil
}

// fakeNotifier records enqueued reset mails.
type fakeNotifier struct {
	sent []string // emails
}

func (f *fakeNotifier) EnqueuePasswordReset(_ context.Context, email, code string, _ time.Time) error {
	f.sent = append(f.sent, email)
	return nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Argon2Memory:       8 * 1024,
		Argon2Iterations:   1,
		Argon2Parallelism:  1,
		Argon2SaltLength:   16,
		Argon2KeyLength:    32,
		TOTPIssuer:         "Projectdesk",
		ResetCodeTTL:       15 * time.Minute,
		LockoutEnabled:     true,
		LockoutMaxAttempts: 5,
		LockoutDuration:    15 * time.Minute,
		LockoutMaxDuration: 24 * time.Hour,
	}
}

func newTestService(t *testing.T) (*Service, *fakeUserStore, *fakeNotifier) {
	t.Helper()
	store := newFakeUserStore()
	notifier := &fakeNotifier{}
	lockout := NewLockoutManager(NewMemoryLockoutStore(), LockoutConfig{
		Enabled:            true,
		MaxAttempts:        5,
		LockoutDuration:    15 * time.Minute,
		MaxLockoutDuration: 24 * time.Hour,
	})
	return NewService(store, notifier, lockout, testAuthConfig()), store, notifier
}

func signupTestUser(t *testing.T, s *Service, email, password string) *models.User {
	t.Helper()
	u, err := s.Signup(context.Background(), email, password, "Test", "User")
	if err != nil {
		t.Fatalf("Signup(%s) error = %v", email, err)
	}
	return u
}

func TestSignupDefaults(t *testing.T) {
	s, store, _ := newTestService(t)
	u := signupTestUser(t, s, "new@example.com", "secret123")

	if u.Role != models.RoleEmployee {
		t.Errorf("Role = %v, want employee default", u.Role)
	}
	if !u.Active {
		t.Error("new user not active")
	}
	stored := store.users["new@example.com"]
	if stored.PasswordHash == "secret123" || stored.PasswordHash == "" {
		t.Error("password stored without hashing")
	}
}

func TestLoginOutcomes(t *testing.T) {
	s, _, _ := newTestService(t)
	signupTestUser(t, s, "u@example.com", "right-password")
	ctx := context.Background()

	// Unknown account and wrong password are distinct failures.
	if _, err := s.Login(ctx, "missing@example.com", "x"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown user error = %v, want ErrNotFound", err)
	}
	if _, err := s.Login(ctx, "u@example.com", "wrong"); !errors.Is(err, models.ErrInvalidCredential) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredential", err)
	}

	result, err := s.Login(ctx, "u@example.com", "right-password")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.SecondFactorRequired || result.User == nil {
		t.Errorf("result = %+v, want completed login", result)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	s, store, _ := newTestService(t)
	signupTestUser(t, s, "gone@example.com", "pw123456")
	store.users["gone@example.com"].Active = false

	if _, err := s.Login(context.Background(), "gone@example.com", "pw123456"); !errors.Is(err, models.ErrAccountInactive) {
		t.Errorf("error = %v, want ErrAccountInactive", err)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	s, _, _ := newTestService(t)
	signupTestUser(t, s, "brute@example.com", "pw123456")
	ctx := context.Background()

	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = s.Login(ctx, "brute@example.com", "wrong")
	}
	if !errors.Is(lastErr, models.ErrLocked) {
		t.Fatalf("fifth failure error = %v, want ErrLocked", lastErr)
	}

	// Even the correct password is rejected while locked.
	if _, err := s.Login(ctx, "brute@example.com", "pw123456"); !errors.Is(err, models.ErrLocked) {
		t.Errorf("locked login error = %v, want ErrLocked", err)
	}
}

func TestTwoFactorLoginFlow(t *testing.T) {
	s, store, _ := newTestService(t)
	signupTestUser(t, s, "tfa@example.com", "pw123456")
	ctx := context.Background()

	enrollment, err := s.SetupTwoFactor(ctx, "tfa@example.com")
	if err != nil {
		t.Fatalf("SetupTwoFactor() error = %v", err)
	}
	// Default behavior: enabled as soon as the secret is issued.
	if !store.users["tfa@example.com"].TwoFAEnabled {
		t.Error("setup did not enable two-factor immediately")
	}

	result, err := s.Login(ctx, "tfa@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !result.SecondFactorRequired {
		t.Fatal("login completed without the second factor")
	}

	if _, err := s.LoginSecondFactor(ctx, "tfa@example.com", "000000"); !errors.Is(err, models.ErrInvalidSecondFactor) {
		t.Errorf("bad code error = %v, want ErrInvalidSecondFactor", err)
	}

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	user, err := s.LoginSecondFactor(ctx, "tfa@example.com", code)
	if err != nil {
		t.Fatalf("LoginSecondFactor() error = %v", err)
	}
	if user.Email != "tfa@example.com" {
		t.Errorf("user = %v, want tfa@example.com", user.Email)
	}
}

func TestTwoFactorSetupOverwritesSecret(t *testing.T) {
	s, store, _ := newTestService(t)
	signupTestUser(t, s, "re@example.com", "pw123456")
	ctx := context.Background()

	first, err := s.SetupTwoFactor(ctx, "re@example.com")
	if err != nil {
		t.Fatalf("first SetupTwoFactor() error = %v", err)
	}
	second, err := s.SetupTwoFactor(ctx, "re@example.com")
	if err != nil {
		t.Fatalf("second SetupTwoFactor() error = %v", err)
	}
	if first.Secret == second.Secret {
		t.Error("re-enrollment reused the old secret")
	}
	if *store.users["re@example.com"].TwoFASecret != second.Secret {
		t.Error("stored secret is not the latest enrollment")
	}
}

func TestTwoFactorConfirmFirstVerify(t *testing.T) {
	store := newFakeUserStore()
	cfg := testAuthConfig()
	cfg.TwoFactorConfirmFirstVerify = true
	lockout := NewLockoutManager(NewMemoryLockoutStore(), DefaultLockoutConfig())
	s := NewService(store, &fakeNotifier{}, lockout, cfg)
	ctx := context.Background()
	signupTestUser(t, s, "confirm@example.com", "pw123456")

	enrollment, err := s.SetupTwoFactor(ctx, "confirm@example.com")
	if err != nil {
		t.Fatalf("SetupTwoFactor() error = %v", err)
	}
	if store.users["confirm@example.com"].TwoFAEnabled {
		t.Fatal("enabled before first verification despite confirm-first-verify")
	}

	// Password login still completes while enrollment is unconfirmed.
	result, err := s.Login(ctx, "confirm@example.com", "pw123456")
	if err != nil || result.SecondFactorRequired {
		t.Fatalf("unconfirmed login: result = %+v, err = %v", result, err)
	}

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	if _, err := s.LoginSecondFactor(ctx, "confirm@example.com", code); err != nil {
		t.Fatalf("LoginSecondFactor() error = %v", err)
	}
	if !store.users["confirm@example.com"].TwoFAEnabled {
		t.Error("first valid code did not confirm enrollment")
	}
}

func TestForgotPasswordUniform(t *testing.T) {
	s, store, notifier := newTestService(t)
	signupTestUser(t, s, "known@example.com", "pw123456")
	ctx := context.Background()

	// Both outcomes look identical to the caller.
	if err := s.ForgotPassword(ctx, "known@example.com"); err != nil {
		t.Errorf("known email: error = %v", err)
	}
	if err := s.ForgotPassword(ctx, "unknown@example.com"); err != nil {
		t.Errorf("unknown email: error = %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != "known@example.com" {
		t.Errorf("mails enqueued = %v, want exactly one to the known account", notifier.sent)
	}
	if !store.users["known@example.com"].HasResetCode() {
		t.Error("no reset code stored for the known account")
	}
}

func TestForgotPasswordRegeneratesCode(t *testing.T) {
	s, store, _ := newTestService(t)
	signupTestUser(t, s, "twice@example.com", "pw123456")
	ctx := context.Background()

	if err := s.ForgotPassword(ctx, "twice@example.com"); err != nil {
		t.Fatalf("first request error = %v", err)
	}
	first := *store.users["twice@example.com"].ResetCode

	if err := s.ForgotPassword(ctx, "twice@example.com"); err != nil {
		t.Fatalf("second request error = %v", err)
	}
	second := *store.users["twice@example.com"].ResetCode

	// The first code no longer verifies once replaced. Codes can collide
	// one time in a million; tolerate that by only checking behavior.
	if first != second {
		if err := s.VerifyResetCode(ctx, "twice@example.com", first); !errors.Is(err, models.ErrInvalidResetCode) {
			t.Errorf("old code error = %v, want ErrInvalidResetCode", err)
		}
	}
	if err := s.VerifyResetCode(ctx, "twice@example.com", second); err != nil {
		t.Errorf("current code error = %v, want nil", err)
	}
}

func TestVerifyResetCodeOrderedChecks(t *testing.T) {
	s, store, _ := newTestService(t)
	signupTestUser(t, s, "order@example.com", "pw123456")
	ctx := context.Background()

	// 1. No code outstanding.
	if err := s.VerifyResetCode(ctx, "order@example.com", "123456"); !errors.Is(err, models.ErrNoResetCode) {
		t.Errorf("no code: error = %v, want ErrNoResetCode", err)
	}
	// Unknown accounts are indistinguishable from accounts with no code.
	if err := s.VerifyResetCode(ctx, "ghost@example.com", "123456"); !errors.Is(err, models.ErrNoResetCode) {
		t.Errorf("unknown account: error = %v, want ErrNoResetCode", err)
	}

	if err := s.ForgotPassword(ctx, "order@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	code := *store.users["order@example.com"].ResetCode

	// 2. Mismatch: rejected but retained for retry.
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := s.VerifyResetCode(ctx, "order@example.com", wrong); !errors.Is(err, models.ErrInvalidResetCode) {
		t.Errorf("mismatch: error = %v, want ErrInvalidResetCode", err)
	}
	if !store.users["order@example.com"].HasResetCode() {
		t.Error("mismatch cleared the stored code; retry is impossible")
	}

	// 3. Match: verifies without consuming.
	if err := s.VerifyResetCode(ctx, "order@example.com", code); err != nil {
		t.Errorf("match: error = %v, want nil", err)
	}
	if !store.users["order@example.com"].HasResetCode() {
		t.Error("verification consumed the code")
	}
}

func TestVerifyResetCodeExpiry(t *testing.T) {
	s, store, _ := newTestService(t)
	signupTestUser(t, s, "exp@example.com", "pw123456")
	ctx := context.Background()

	issued := time.Now()
	s.now = func() time.Time { return issued }
	if err := s.ForgotPassword(ctx, "exp@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	code := *store.users["exp@example.com"].ResetCode
	expires := *store.users["exp@example.com"].ResetCodeExpires

	// One instant before expiry the code is live.
	s.now = func() time.Time { return expires.Add(-time.Nanosecond) }
	if err := s.VerifyResetCode(ctx, "exp@example.com", code); err != nil {
		t.Errorf("just before expiry: error = %v, want nil", err)
	}

	// The exact expiry instant counts as expired, and expiry clears the
	// stored pair.
	s.now = func() time.Time { return expires }
	if err := s.VerifyResetCode(ctx, "exp@example.com", code); !errors.Is(err, models.ErrResetCodeExpired) {
		t.Errorf("at expiry: error = %v, want ErrResetCodeExpired", err)
	}
	if store.users["exp@example.com"].HasResetCode() {
		t.Error("expired code not cleared")
	}

	// With the pair cleared the state machine is back at the start.
	if err := s.VerifyResetCode(ctx, "exp@example.com", code); !errors.Is(err, models.ErrNoResetCode) {
		t.Errorf("after expiry clear: error = %v, want ErrNoResetCode", err)
	}
}

func TestResetPasswordConsumesCode(t *testing.T) {
	s, store, _ := newTestService(t)
	signupTestUser(t, s, "rp@example.com", "old-password")
	ctx := context.Background()

	if err := s.ForgotPassword(ctx, "rp@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	code := *store.users["rp@example.com"].ResetCode

	if err := s.ResetPassword(ctx, "rp@example.com", code, "new-password"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if store.users["rp@example.com"].HasResetCode() {
		t.Error("code survived a successful reset")
	}

	// Replays fail and the old password is gone.
	if err := s.ResetPassword(ctx, "rp@example.com", code, "another"); !errors.Is(err, models.ErrNoResetCode) {
		t.Errorf("replay error = %v, want ErrNoResetCode", err)
	}
	if _, err := s.Login(ctx, "rp@example.com", "old-password"); !errors.Is(err, models.ErrInvalidCredential) {
		t.Errorf("old password error = %v, want ErrInvalidCredential", err)
	}
	if _, err := s.Login(ctx, "rp@example.com", "new-password"); err != nil {
		t.Errorf("new password error = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	s, _, _ := newTestService(t)
	signupTestUser(t, s, "cp@example.com", "current-pw")
	ctx := context.Background()

	if err := s.ChangePassword(ctx, "cp@example.com", "wrong", "next-pw"); !errors.Is(err, models.ErrInvalidCredential) {
		t.Errorf("wrong current: error = %v, want ErrInvalidCredential", err)
	}
	if err := s.ChangePassword(ctx, "cp@example.com", "current-pw", "current-pw"); !errors.Is(err, models.ErrSamePassword) {
		t.Errorf("unchanged password: error = %v, want ErrSamePassword", err)
	}

	if err := s.ChangePassword(ctx, "cp@example.com", "current-pw", "next-pw"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := s.Login(ctx, "cp@example.com", "next-pw"); err != nil {
		t.Errorf("login with new password: error = %v", err)
	}
}

func TestTwoFactorStatusAndQR(t *testing.T) {
	s, _, _ := newTestService(t)
	signupTestUser(t, s, "st@example.com", "pw123456")
	ctx := context.Background()

	enabled, err := s.TwoFactorStatus(ctx, "st@example.com")
	if err != nil || enabled {
		t.Errorf("before setup: enabled = %v, err = %v", enabled, err)
	}
	if _, err := s.TwoFactorQR(ctx, "st@example.com", 256); !errors.Is(err, models.ErrTwoFactorNotEnabled) {
		t.Errorf("QR without secret: error = %v, want ErrTwoFactorNotEnabled", err)
	}

	if _, err := s.SetupTwoFactor(ctx, "st@example.com"); err != nil {
		t.Fatalf("SetupTwoFactor() error = %v", err)
	}
	enabled, err = s.TwoFactorStatus(ctx, "st@example.com")
	if err != nil || !enabled {
		t.Errorf("after setup: enabled = %v, err = %v", enabled, err)
	}
	img, err := s.TwoFactorQR(ctx, "st@example.com", 256)
	if err != nil || len(img) == 0 {
		t.Errorf("QR after setup: %d bytes, err = %v", len(img), err)
	}
}

func TestDisableTwoFactor(t *testing.T) {
	s, store, _ := newTestService(t)
	signupTestUser(t, s, "off@example.com", "pw123456")
	ctx := context.Background()

	if _, err := s.SetupTwoFactor(ctx, "off@example.com"); err != nil {
		t.Fatalf("SetupTwoFactor() error = %v", err)
	}
	if err := s.DisableTwoFactor(ctx, "off@example.com", "wrong"); !errors.Is(err, models.ErrInvalidCredential) {
		t.Errorf("wrong password: error = %v, want ErrInvalidCredential", err)
	}
	if err := s.DisableTwoFactor(ctx, "off@example.com", "pw123456"); err != nil {
		t.Fatalf("DisableTwoFactor() error = %v", err)
	}
	u := store.users["off@example.com"]
	if u.TwoFAEnabled || u.TwoFASecret != nil {
		t.Error("two-factor state not fully cleared")
	}
}
