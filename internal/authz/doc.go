// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

// Package authz implements Role-Based Access Control using Casbin.
//
// The system has exactly three roles: admin, employee, and guest. The
// Casbin policy (embedded model.conf and policy.csv) encodes the per-role
// permission baseline; on top of it each permission carries a scope that
// narrows employee and guest access to a specific project:
//
//	ScopeNone   - the baseline alone decides (admin-only operations)
//	ScopeMember - the actor must belong to the project
//	ScopeOwner  - the actor must have created the resource
//
// Decisions are evaluated in a fixed order:
//
//  1. Guests are denied every mutating action before any lookup.
//  2. Admins are allowed every action before any lookup.
//  3. Employees (and guests, for reads) consult the Casbin baseline,
//     then the membership or ownership scope.
//
// Membership and ownership never expand an admin's rights and never
// grant a guest write access. The engine talks to storage only through
// the MembershipStore interface, so the decision logic is testable
// without a database.
package authz
