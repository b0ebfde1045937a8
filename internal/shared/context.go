package shared

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the resolved caller supplied by the identity layer. The engine
// never parses credentials itself; it consumes this struct.
type Identity struct {
	UserID       uuid.UUID
	TenantID     *uuid.UUID
	IsSuperAdmin bool
}

// Tenant returns the acting tenant id, or ErrNoTenant when the identity is not
// bound to one. Resolution failure is surfaced, never silently defaulted.
func (id Identity) Tenant() (uuid.UUID, error) {
	if id.TenantID == nil {
		return uuid.Nil, ErrNoTenant
	}
	return *id.TenantID, nil
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the resolved identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
