// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casbin/casbin/v2"

	"github.com/enconsulting/projectdesk/internal/logging"
	"github.com/enconsulting/projectdesk/internal/models"
)

// ErrNilActor is returned when a decision is requested for a nil user.
var ErrNilActor = errors.New("authorization actor is nil")

// Scope narrows a role's baseline permission to a project context.
type Scope int

const (
	// ScopeNone means the role baseline alone decides.
	ScopeNone Scope = iota
	// ScopeMember requires the actor to belong to the project.
	ScopeMember
	// ScopeOwner requires the actor to have created the resource.
	ScopeOwner
)

// Resource and action vocabulary. These match the embedded policy rows.
const (
	resProject  = "project"
	resMember   = "member"
	resUser     = "user"
	resDocument = "document"
	resTodo     = "todo"

	actView   = "view"
	actCreate = "create"
	actEdit   = "edit"
	actDelete = "delete"
	actUpload = "upload"
	actAssign = "assign"
	actManage = "manage"
)

type permission struct {
	object string
	action string
}

// scopes maps each permission to the check applied after the role
// baseline. Permissions absent from this table are ScopeNone.
var scopes = map[permission]Scope{
	{resProject, actView}:    ScopeMember,
	{resDocument, actUpload}: ScopeMember,
	{resTodo, actCreate}:     ScopeMember,
	{resTodo, actEdit}:       ScopeMember,
	{resDocument, actDelete}: ScopeOwner,
	{resTodo, actDelete}:     ScopeOwner,
}

// MembershipStore is the storage surface the engine needs. *database.DB
// satisfies it.
type MembershipStore interface {
	IsProjectMember(ctx context.Context, userID, projectID int64) (bool, error)
	ListAllProjects(ctx context.Context) ([]*models.Project, error)
	ListProjectsForUser(ctx context.Context, userID int64) ([]*models.Project, error)
}

// Engine makes authorization decisions for the fixed three-role model.
type Engine struct {
	enforcer *casbin.SyncedEnforcer
	store    MembershipStore
}

// NewEngine creates an authorization engine backed by the embedded policy.
func NewEngine(store MembershipStore) (*Engine, error) {
	enforcer, err := newEnforcer()
	if err != nil {
		return nil, err
	}
	return &Engine{enforcer: enforcer, store: store}, nil
}

// decide runs the ordered decision pipeline for one permission. ownerID
// is consulted only when the permission's scope is ScopeOwner.
func (e *Engine) decide(ctx context.Context, user *models.User, perm permission, projectID, ownerID int64) (bool, error) {
	if user == nil {
		return false, ErrNilActor
	}

	start := time.Now()
	allowed, err := e.evaluate(ctx, user, perm, projectID, ownerID)
	recordDecision(string(user.Role), perm.object, perm.action, allowed, time.Since(start))
	if err != nil {
		return false, err
	}

	if !allowed {
		logging.Ctx(ctx).Debug().
			Int64("user_id", user.ID).
			Str("role", string(user.Role)).
			Str("object", perm.object).
			Str("action", perm.action).
			Int64("project_id", projectID).
			Msg("authorization denied")
	}
	return allowed, nil
}

func (e *Engine) evaluate(ctx context.Context, user *models.User, perm permission, projectID, ownerID int64) (bool, error) {
	// Guests never mutate anything; decided before any lookup.
	if user.IsGuest() && perm.action != actView {
		return false, nil
	}

	// Admins can do everything; decided before any lookup.
	if user.IsAdmin() {
		return true, nil
	}

	allowed, err := e.enforcer.Enforce(string(user.Role), perm.object, perm.action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	if !allowed {
		return false, nil
	}

	switch scopes[perm] {
	case ScopeMember:
		return e.store.IsProjectMember(ctx, user.ID, projectID)
	case ScopeOwner:
		return user.ID == ownerID, nil
	default:
		return true, nil
	}
}

// CanViewProject reports whether the user may read a project and the
// resources under it.
func (e *Engine) CanViewProject(ctx context.Context, user *models.User, projectID int64) (bool, error) {
	return e.decide(ctx, user, permission{resProject, actView}, projectID, 0)
}

// CanCreateProject reports whether the user may create projects.
func (e *Engine) CanCreateProject(ctx context.Context, user *models.User) (bool, error) {
	return e.decide(ctx, user, permission{resProject, actCreate}, 0, 0)
}

// CanEditProject reports whether the user may edit project metadata.
func (e *Engine) CanEditProject(ctx context.Context, user *models.User, projectID int64) (bool, error) {
	return e.decide(ctx, user, permission{resProject, actEdit}, projectID, 0)
}

// CanDeleteProject reports whether the user may delete a project.
func (e *Engine) CanDeleteProject(ctx context.Context, user *models.User, projectID int64) (bool, error) {
	return e.decide(ctx, user, permission{resProject, actDelete}, projectID, 0)
}

// CanManageMembers reports whether the user may add or remove project
// members.
func (e *Engine) CanManageMembers(ctx context.Context, user *models.User, projectID int64) (bool, error) {
	return e.decide(ctx, user, permission{resMember, actManage}, projectID, 0)
}

// CanManageUsers reports whether the user may administer user accounts.
func (e *Engine) CanManageUsers(ctx context.Context, user *models.User) (bool, error) {
	return e.decide(ctx, user, permission{resUser, actManage}, 0, 0)
}

// CanAssignTodos reports whether the user may assign project todos to
// other users.
func (e *Engine) CanAssignTodos(ctx context.Context, user *models.User, projectID int64) (bool, error) {
	return e.decide(ctx, user, permission{resTodo, actAssign}, projectID, 0)
}

// CanUploadDocument reports whether the user may upload a document to
// the project.
func (e *Engine) CanUploadDocument(ctx context.Context, user *models.User, projectID int64) (bool, error) {
	return e.decide(ctx, user, permission{resDocument, actUpload}, projectID, 0)
}

// CanDeleteDocument reports whether the user may delete a document.
// Admins may delete any document; employees only their own uploads.
func (e *Engine) CanDeleteDocument(ctx context.Context, user *models.User, projectID, uploadedBy int64) (bool, error) {
	return e.decide(ctx, user, permission{resDocument, actDelete}, projectID, uploadedBy)
}

// CanCreateTodo reports whether the user may create a todo in the project.
func (e *Engine) CanCreateTodo(ctx context.Context, user *models.User, projectID int64) (bool, error) {
	return e.decide(ctx, user, permission{resTodo, actCreate}, projectID, 0)
}

// CanEditTodo reports whether the user may edit a todo in the project.
func (e *Engine) CanEditTodo(ctx context.Context, user *models.User, projectID int64) (bool, error) {
	return e.decide(ctx, user, permission{resTodo, actEdit}, projectID, 0)
}

// CanDeleteTodo reports whether the user may delete a todo. Admins may
// delete any todo; employees only todos they created.
func (e *Engine) CanDeleteTodo(ctx context.Context, user *models.User, projectID, createdBy int64) (bool, error) {
	return e.decide(ctx, user, permission{resTodo, actDelete}, projectID, createdBy)
}

// AccessibleProjects returns every project the user may see: all
// projects for admins, joined projects for everyone else.
func (e *Engine) AccessibleProjects(ctx context.Context, user *models.User) ([]*models.Project, error) {
	if user == nil {
		return nil, ErrNilActor
	}
	if user.IsAdmin() {
		return e.store.ListAllProjects(ctx)
	}
	return e.store.ListProjectsForUser(ctx, user.ID)
}
