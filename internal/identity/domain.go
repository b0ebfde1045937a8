// Package identity resolves the acting user for a request. It consumes an
// opaque bearer session id issued by the external login system; it never
// parses credentials or token payloads itself.
package identity

import "github.com/google/uuid"

// UserInfo carries the security-relevant attributes of a user account. The
// account itself is owned by the external identity system.
type UserInfo struct {
	ID           uuid.UUID
	TenantID     *uuid.UUID
	IsSuperAdmin bool
	IsActive     bool
}
