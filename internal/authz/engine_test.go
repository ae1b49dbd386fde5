// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/enconsulting/projectdesk/internal/models"
)

// fakeStore implements MembershipStore with in-memory membership pairs.
type fakeStore struct {
	members  map[[2]int64]bool // [userID, projectID]
	all      []*models.Project
	byUser   map[int64][]*models.Project
	lookups  int
	storeErr error
}

func (f *fakeStore) IsProjectMember(_ context.Context, userID, projectID int64) (bool, error) {
	f.lookups++
	if f.storeErr != nil {
		return false, f.storeErr
	}
	return f.members[[2]int64{userID, projectID}], nil
}

func (f *fakeStore) ListAllProjects(_ context.Context) ([]*models.Project, error) {
	return f.all, nil
}

func (f *fakeStore) ListProjectsForUser(_ context.Context, userID int64) ([]*models.Project, error) {
	return f.byUser[userID], nil
}

func testUser(id int64, role models.Role) *models.User {
	return &models.User{ID: id, Email: "u@example.com", Role: role, Active: true}
}

func newTestEngine(t *testing.T, store *fakeStore) *Engine {
	t.Helper()
	e, err := NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestGuestWritesAlwaysDenied(t *testing.T) {
	// Even a guest who belongs to the project is denied every write,
	// and the membership store must never be consulted.
	store := &fakeStore{members: map[[2]int64]bool{{1, 10}: true}}
	engine := newTestEngine(t, store)
	guest := testUser(1, models.RoleGuest)
	ctx := context.Background()

	checks := map[string]func() (bool, error){
		"upload document": func() (bool, error) { return engine.CanUploadDocument(ctx, guest, 10) },
		"create todo":     func() (bool, error) { return engine.CanCreateTodo(ctx, guest, 10) },
		"edit todo":       func() (bool, error) { return engine.CanEditTodo(ctx, guest, 10) },
		"delete todo":     func() (bool, error) { return engine.CanDeleteTodo(ctx, guest, 10, guest.ID) },
		"delete document": func() (bool, error) { return engine.CanDeleteDocument(ctx, guest, 10, guest.ID) },
		"create project":  func() (bool, error) { return engine.CanCreateProject(ctx, guest) },
		"edit project":    func() (bool, error) { return engine.CanEditProject(ctx, guest, 10) },
		"delete project":  func() (bool, error) { return engine.CanDeleteProject(ctx, guest, 10) },
		"manage members":  func() (bool, error) { return engine.CanManageMembers(ctx, guest, 10) },
		"manage users":    func() (bool, error) { return engine.CanManageUsers(ctx, guest) },
		"assign todos":    func() (bool, error) { return engine.CanAssignTodos(ctx, guest, 10) },
	}
	for name, check := range checks {
		allowed, err := check()
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if allowed {
			t.Errorf("%s: guest was allowed a write", name)
		}
	}
	if store.lookups != 0 {
		t.Errorf("membership store consulted %d times for guest writes, want 0", store.lookups)
	}
}

func TestAdminAlwaysAllowedWithoutLookup(t *testing.T) {
	store := &fakeStore{members: map[[2]int64]bool{}} // admin is member of nothing
	engine := newTestEngine(t, store)
	admin := testUser(2, models.RoleAdmin)
	ctx := context.Background()

	checks := map[string]func() (bool, error){
		"view project":    func() (bool, error) { return engine.CanViewProject(ctx, admin, 10) },
		"delete project":  func() (bool, error) { return engine.CanDeleteProject(ctx, admin, 10) },
		"manage members":  func() (bool, error) { return engine.CanManageMembers(ctx, admin, 10) },
		"manage users":    func() (bool, error) { return engine.CanManageUsers(ctx, admin) },
		"assign todos":    func() (bool, error) { return engine.CanAssignTodos(ctx, admin, 10) },
		"delete document": func() (bool, error) { return engine.CanDeleteDocument(ctx, admin, 10, 999) },
		"delete todo":     func() (bool, error) { return engine.CanDeleteTodo(ctx, admin, 10, 999) },
	}
	for name, check := range checks {
		allowed, err := check()
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if !allowed {
			t.Errorf("%s: admin was denied", name)
		}
	}
	if store.lookups != 0 {
		t.Errorf("membership store consulted %d times for admin, want 0", store.lookups)
	}
}

func TestEmployeeMembershipScope(t *testing.T) {
	store := &fakeStore{members: map[[2]int64]bool{{3, 10}: true}}
	engine := newTestEngine(t, store)
	emp := testUser(3, models.RoleEmployee)
	ctx := context.Background()

	tests := []struct {
		name      string
		projectID int64
		check     func(projectID int64) (bool, error)
		want      bool
	}{
		{"view member project", 10, func(p int64) (bool, error) { return engine.CanViewProject(ctx, emp, p) }, true},
		{"view other project", 20, func(p int64) (bool, error) { return engine.CanViewProject(ctx, emp, p) }, false},
		{"upload to member project", 10, func(p int64) (bool, error) { return engine.CanUploadDocument(ctx, emp, p) }, true},
		{"upload to other project", 20, func(p int64) (bool, error) { return engine.CanUploadDocument(ctx, emp, p) }, false},
		{"create todo in member project", 10, func(p int64) (bool, error) { return engine.CanCreateTodo(ctx, emp, p) }, true},
		{"edit todo in other project", 20, func(p int64) (bool, error) { return engine.CanEditTodo(ctx, emp, p) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := tt.check(tt.projectID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if allowed != tt.want {
				t.Errorf("allowed = %v, want %v", allowed, tt.want)
			}
		})
	}
}

func TestEmployeeOwnershipScope(t *testing.T) {
	store := &fakeStore{members: map[[2]int64]bool{{3, 10}: true}}
	engine := newTestEngine(t, store)
	emp := testUser(3, models.RoleEmployee)
	ctx := context.Background()

	allowed, err := engine.CanDeleteTodo(ctx, emp, 10, emp.ID)
	if err != nil || !allowed {
		t.Errorf("delete own todo: allowed = %v, err = %v, want true, nil", allowed, err)
	}

	allowed, err = engine.CanDeleteTodo(ctx, emp, 10, 999)
	if err != nil || allowed {
		t.Errorf("delete someone else's todo: allowed = %v, err = %v, want false, nil", allowed, err)
	}

	allowed, err = engine.CanDeleteDocument(ctx, emp, 10, emp.ID)
	if err != nil || !allowed {
		t.Errorf("delete own document: allowed = %v, err = %v, want true, nil", allowed, err)
	}

	allowed, err = engine.CanDeleteDocument(ctx, emp, 10, 999)
	if err != nil || allowed {
		t.Errorf("delete someone else's document: allowed = %v, err = %v, want false, nil", allowed, err)
	}
}

func TestEmployeeAdminOnlyActionsDenied(t *testing.T) {
	// Membership never grants project management rights.
	store := &fakeStore{members: map[[2]int64]bool{{3, 10}: true}}
	engine := newTestEngine(t, store)
	emp := testUser(3, models.RoleEmployee)
	ctx := context.Background()

	checks := map[string]func() (bool, error){
		"create project": func() (bool, error) { return engine.CanCreateProject(ctx, emp) },
		"edit project":   func() (bool, error) { return engine.CanEditProject(ctx, emp, 10) },
		"delete project": func() (bool, error) { return engine.CanDeleteProject(ctx, emp, 10) },
		"manage members": func() (bool, error) { return engine.CanManageMembers(ctx, emp, 10) },
		"manage users":   func() (bool, error) { return engine.CanManageUsers(ctx, emp) },
		"assign todos":   func() (bool, error) { return engine.CanAssignTodos(ctx, emp, 10) },
	}
	for name, check := range checks {
		allowed, err := check()
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if allowed {
			t.Errorf("%s: employee was allowed an admin-only action", name)
		}
	}
}

func TestGuestViewFollowsMembership(t *testing.T) {
	store := &fakeStore{members: map[[2]int64]bool{{4, 10}: true}}
	engine := newTestEngine(t, store)
	guest := testUser(4, models.RoleGuest)
	ctx := context.Background()

	allowed, err := engine.CanViewProject(ctx, guest, 10)
	if err != nil || !allowed {
		t.Errorf("guest view member project: allowed = %v, err = %v, want true, nil", allowed, err)
	}
	allowed, err = engine.CanViewProject(ctx, guest, 20)
	if err != nil || allowed {
		t.Errorf("guest view other project: allowed = %v, err = %v, want false, nil", allowed, err)
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection lost")
	store := &fakeStore{storeErr: storeErr}
	engine := newTestEngine(t, store)
	emp := testUser(3, models.RoleEmployee)

	_, err := engine.CanViewProject(context.Background(), emp, 10)
	if !errors.Is(err, storeErr) {
		t.Errorf("error = %v, want wrapped store error", err)
	}
}

func TestNilActor(t *testing.T) {
	engine := newTestEngine(t, &fakeStore{})

	if _, err := engine.CanViewProject(context.Background(), nil, 10); !errors.Is(err, ErrNilActor) {
		t.Errorf("error = %v, want ErrNilActor", err)
	}
	if _, err := engine.AccessibleProjects(context.Background(), nil); !errors.Is(err, ErrNilActor) {
		t.Errorf("AccessibleProjects error = %v, want ErrNilActor", err)
	}
}

func TestAccessibleProjects(t *testing.T) {
	all := []*models.Project{{ID: 10}, {ID: 20}, {ID: 30}}
	store := &fakeStore{
		all:    all,
		byUser: map[int64][]*models.Project{3: {all[0]}},
	}
	engine := newTestEngine(t, store)
	ctx := context.Background()

	got, err := engine.AccessibleProjects(ctx, testUser(2, models.RoleAdmin))
	if err != nil {
		t.Fatalf("admin: unexpected error %v", err)
	}
	if len(got) != 3 {
		t.Errorf("admin sees %d projects, want 3", len(got))
	}

	got, err = engine.AccessibleProjects(ctx, testUser(3, models.RoleEmployee))
	if err != nil {
		t.Fatalf("employee: unexpected error %v", err)
	}
	if len(got) != 1 || got[0].ID != 10 {
		t.Errorf("employee sees %v, want just project 10", got)
	}
}
