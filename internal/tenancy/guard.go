// Package tenancy enforces tenant boundaries on management operations. Every
// mutating operation on roles, assignments, and scoped overrides passes through
// these checks before touching a store.
package tenancy

import (
	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/shared"
)

// SameTenant verifies that an entity belongs to the caller's tenant. A nil
// entity tenant means the entity is system-wide; tenant-scoped admins may not
// manage those. The returned violation maps to the not-found shape at the HTTP
// layer so cross-tenant ids are indistinguishable from missing ones.
func SameTenant(entityTenant, callerTenant *uuid.UUID) error {
	if callerTenant == nil {
		return shared.ErrNoTenant
	}
	if entityTenant == nil {
		return shared.ErrCrossTenant
	}
	if *entityTenant != *callerTenant {
		return shared.ErrCrossTenant
	}
	return nil
}

// NotSuperadmin rejects tenant-scoped administration aimed at a superadmin
// account. Tenant admins must never manage superadmin role assignments or
// account state.
func NotSuperadmin(targetIsSuperAdmin bool) error {
	if targetIsSuperAdmin {
		return shared.ErrForbidden
	}
	return nil
}
