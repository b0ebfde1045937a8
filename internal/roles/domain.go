package roles

import (
	"time"

	"github.com/google/uuid"
)

// Role groups globally granted permissions within one tenant. A nil TenantID
// marks a system-wide role; system roles are never mutable through tenant
// administration.
type Role struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     *uuid.UUID `json:"tenant_id,omitempty"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	IsSystemRole bool       `json:"is_system_role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Effect is the outcome a scoped override attaches to one permission code.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// ScopedEntry is one permission effect inside a role's override set for a
// specific scope.
type ScopedEntry struct {
	PermissionCode string `json:"permission_code"`
	Effect         Effect `json:"effect"`
}

// ScopedGrant pairs a resolved permission id with its effect for persistence.
type ScopedGrant struct {
	PermissionID uuid.UUID
	Effect       Effect
}

type CreateRoleRequest struct {
	Code        string `json:"code" validate:"required,max=100"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	IsActive    bool   `json:"is_active"`
}

type SetPermissionsRequest struct {
	PermissionCodes []string `json:"permission_codes"`
}

type SetScopedPermissionsRequest struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

// ScopedEffects is the query shape for a role's override set in one scope.
type ScopedEffects struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}
