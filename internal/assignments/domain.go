// Package assignments manages the links between users and roles, optionally
// narrowed to a single scope instance.
package assignments

import (
	"time"

	"github.com/google/uuid"
)

// UserRoleAssignment binds a user to a role. A nil scope pair means the role
// applies globally within the tenant; a set pair restricts it to one scope
// instance. RoleCode and RoleName are denormalized for listings.
type UserRoleAssignment struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	RoleID    uuid.UUID  `json:"role_id"`
	RoleCode  string     `json:"role_code"`
	RoleName  string     `json:"role_name"`
	ScopeType *string    `json:"scope_type,omitempty"`
	ScopeID   *uuid.UUID `json:"scope_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Global reports whether the assignment carries no scope restriction.
func (a UserRoleAssignment) Global() bool {
	return a.ScopeType == nil && a.ScopeID == nil
}

type AssignRequest struct {
	RoleID    uuid.UUID  `json:"role_id" validate:"required"`
	ScopeType string     `json:"scope_type" validate:"max=100"`
	ScopeID   *uuid.UUID `json:"scope_id"`
}
