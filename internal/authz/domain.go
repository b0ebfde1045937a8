// Package authz implements the authorization resolution engine: it combines
// role assignments, global grants, and scoped overrides into a single
// deterministic allow/deny decision.
package authz

import "github.com/google/uuid"

// Effect is a scoped override outcome as persisted.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Scope narrows a permission check to a specific resource subset. Type is
// normalized at ingestion; matching is exact, never hierarchical.
type Scope struct {
	Type string
	ID   uuid.UUID
}

// Assignment is one active user→role binding as seen by the resolver. Nil
// scope fields mean the binding is global within the tenant.
type Assignment struct {
	RoleID    uuid.UUID
	ScopeType *string
	ScopeID   *uuid.UUID
}

// Global reports whether the assignment carries no scope qualification.
func (a Assignment) Global() bool {
	return a.ScopeType == nil && a.ScopeID == nil
}
