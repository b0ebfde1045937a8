package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/shared"
)

// Store is the injected read capability the resolver runs against. Production
// wires the PostgreSQL store; tests substitute an in-memory fake.
type Store interface {
	// ActiveAssignments returns every active assignment for the user whose
	// role is itself active.
	ActiveAssignments(ctx context.Context, userID uuid.UUID) ([]Assignment, error)
	// GrantedCodes returns the role's globally granted active permission codes.
	GrantedCodes(ctx context.Context, roleID uuid.UUID) ([]string, error)
	// ScopedEffects returns the role's override set for one exact scope,
	// keyed by permission code.
	ScopedEffects(ctx context.Context, roleID uuid.UUID, scopeType string, scopeID uuid.UUID) (map[string]Effect, error)
}

// Resolver computes allow/deny decisions. It is stateless per call and holds
// no view of tenant boundaries or superadmin status: callers apply the
// superadmin bypass before invoking it.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver backed by the provided store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// HasPermission decides whether the user holds the permission, optionally
// restricted to a scope. Policy is deny-overrides-allow: a scoped Deny from
// any matching role vetoes the whole decision immediately, while Allow is
// accumulated so a later Deny can still win.
func (r *Resolver) HasPermission(ctx context.Context, userID uuid.UUID, permissionCode string, scope *Scope) (bool, error) {
	code := shared.NormalizeCode(permissionCode)
	if code == "" {
		return false, nil
	}
	if scope != nil {
		normalized := Scope{Type: shared.NormalizeScopeType(scope.Type), ID: scope.ID}
		scope = &normalized
	}

	assignments, err := r.store.ActiveAssignments(ctx, userID)
	if err != nil {
		return false, err
	}
	matching := matchingAssignments(assignments, scope)
	if len(matching) == 0 {
		return false, nil
	}

	anyAllow := false
	for _, assignment := range matching {
		if scope != nil {
			effects, err := r.store.ScopedEffects(ctx, assignment.RoleID, scope.Type, scope.ID)
			if err != nil {
				return false, err
			}
			if len(effects) > 0 {
				// A non-empty override set is authoritative for this
				// role+scope; global grants are not consulted. A permission
				// the set does not mention is not granted by this role.
				switch effects[code] {
				case EffectDeny:
					return false, nil
				case EffectAllow:
					anyAllow = true
				}
				continue
			}
		}
		granted, err := r.store.GrantedCodes(ctx, assignment.RoleID)
		if err != nil {
			return false, err
		}
		for _, grantedCode := range granted {
			if grantedCode == code {
				anyAllow = true
				break
			}
		}
	}
	return anyAllow, nil
}

// matchingAssignments selects the subset of assignments relevant to the
// requested scope. Unscoped checks consult only global assignments; scoped
// checks consult global assignments plus exact scope matches. An assignment
// scoped elsewhere never matches.
func matchingAssignments(assignments []Assignment, scope *Scope) []Assignment {
	var matching []Assignment
	for _, a := range assignments {
		if a.Global() {
			matching = append(matching, a)
			continue
		}
		if scope == nil || a.ScopeType == nil || a.ScopeID == nil {
			continue
		}
		if shared.NormalizeScopeType(*a.ScopeType) == scope.Type && *a.ScopeID == scope.ID {
			matching = append(matching, a)
		}
	}
	return matching
}
