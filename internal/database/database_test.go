// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/enconsulting/projectdesk/internal/config"
	"github.com/enconsulting/projectdesk/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string, role models.Role) *models.User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), &models.User{
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) error = %v", email, err)
	}
	return u
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "a@example.com", models.RoleEmployee)

	_, err := db.CreateUser(context.Background(), &models.User{
		Email:        "a@example.com",
		PasswordHash: "x",
		Role:         models.RoleEmployee,
		Active:       true,
	})
	if !errors.Is(err, models.ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetUserByEmail error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetUserByID(context.Background(), 999); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetUserByID error = %v, want ErrNotFound", err)
	}
}

func TestResetCodePairSetAndCleared(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "reset@example.com", models.RoleEmployee)

	expires := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)
	if err := db.SetResetCode(ctx, u.ID, "042517", expires); err != nil {
		t.Fatalf("SetResetCode() error = %v", err)
	}

	got, err := db.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if !got.HasResetCode() {
		t.Fatal("expected reset code and expiry to both be set")
	}
	if *got.ResetCode != "042517" {
		t.Errorf("ResetCode = %q, want 042517 (leading zero preserved)", *got.ResetCode)
	}

	// Consuming the code clears both fields in one statement with the
	// password update.
	if err := db.ResetPasswordAndClearCode(ctx, u.ID, "newhash"); err != nil {
		t.Fatalf("ResetPasswordAndClearCode() error = %v", err)
	}
	got, err = db.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.ResetCode != nil || got.ResetCodeExpires != nil {
		t.Error("reset code pair not cleared together after consumption")
	}
	if got.PasswordHash != "newhash" {
		t.Errorf("PasswordHash = %q, want newhash", got.PasswordHash)
	}
}

func TestTwoFactorSecretOverwrite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "totp@example.com", models.RoleEmployee)

	if err := db.SetTwoFactorSecret(ctx, u.ID, "FIRSTSECRET", true); err != nil {
		t.Fatalf("SetTwoFactorSecret() error = %v", err)
	}
	if err := db.SetTwoFactorSecret(ctx, u.ID, "SECONDSECRET", true); err != nil {
		t.Fatalf("SetTwoFactorSecret() second call error = %v", err)
	}

	got, err := db.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if !got.TwoFAEnabled || got.TwoFASecret == nil || *got.TwoFASecret != "SECONDSECRET" {
		t.Errorf("secret = %v enabled = %v, want SECONDSECRET/true (overwrite semantics)",
			got.TwoFASecret, got.TwoFAEnabled)
	}
}

func TestMembership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	emp := createTestUser(t, db, "emp@example.com", models.RoleEmployee)

	p, err := db.CreateProject(ctx, "Alpha", "first project", admin.ID)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	member, err := db.IsProjectMember(ctx, emp.ID, p.ID)
	if err != nil {
		t.Fatalf("IsProjectMember() error = %v", err)
	}
	if member {
		t.Error("IsProjectMember = true before AddProjectMember")
	}

	if err := db.AddProjectMember(ctx, emp.ID, p.ID); err != nil {
		t.Fatalf("AddProjectMember() error = %v", err)
	}
	// Adding again must be a no-op, not an error.
	if err := db.AddProjectMember(ctx, emp.ID, p.ID); err != nil {
		t.Fatalf("AddProjectMember() second call error = %v", err)
	}

	member, err = db.IsProjectMember(ctx, emp.ID, p.ID)
	if err != nil {
		t.Fatalf("IsProjectMember() error = %v", err)
	}
	if !member {
		t.Error("IsProjectMember = false after AddProjectMember")
	}

	projects, err := db.ListProjectsForUser(ctx, emp.ID)
	if err != nil {
		t.Fatalf("ListProjectsForUser() error = %v", err)
	}
	if len(projects) != 1 || projects[0].ID != p.ID {
		t.Errorf("ListProjectsForUser = %v, want just project %d", projects, p.ID)
	}

	if err := db.RemoveProjectMember(ctx, emp.ID, p.ID); err != nil {
		t.Fatalf("RemoveProjectMember() error = %v", err)
	}
	member, _ = db.IsProjectMember(ctx, emp.ID, p.ID)
	if member {
		t.Error("IsProjectMember = true after RemoveProjectMember")
	}
}

func TestDocumentOwnershipImmutable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createTestUser(t, db, "a2@example.com", models.RoleAdmin)
	emp := createTestUser(t, db, "e2@example.com", models.RoleEmployee)

	p, err := db.CreateProject(ctx, "Beta", "", admin.ID)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	d, err := db.CreateDocument(ctx, p.ID, "plan.pdf", []byte("content"), emp.ID)
	if err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if d.UploadedBy != emp.ID {
		t.Errorf("UploadedBy = %d, want %d", d.UploadedBy, emp.ID)
	}
	if d.Size != int64(len("content")) {
		t.Errorf("Size = %d, want %d", d.Size, len("content"))
	}
}

func TestProjectCascadeDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin := createTestUser(t, db, "a3@example.com", models.RoleAdmin)

	p, err := db.CreateProject(ctx, "Gamma", "", admin.ID)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := db.CreateDocument(ctx, p.ID, "f.txt", []byte("x"), admin.ID); err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if err := db.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	docs, err := db.ListDocuments(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("documents survived project delete: %d", len(docs))
	}
}
