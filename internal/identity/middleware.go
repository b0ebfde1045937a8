package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/platform/httpx"
	"github.com/aegis-iam/aegis/internal/shared"
)

// UserDirectory loads user security info for resolved session owners.
type UserDirectory interface {
	SecurityInfo(ctx context.Context, userID uuid.UUID) (UserInfo, error)
}

// Middleware authenticates requests and injects the resolved identity into the
// request context.
type Middleware struct {
	Sessions *SessionStore
	Users    UserDirectory
	Logger   *slog.Logger
}

// Authenticate resolves the bearer token into a shared.Identity. Requests
// without a valid session, or for inactive accounts, are rejected with 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		userID, err := m.Sessions.Lookup(r.Context(), token)
		if err != nil {
			m.reject(w, err)
			return
		}
		info, err := m.Users.SecurityInfo(r.Context(), userID)
		if err != nil {
			m.reject(w, err)
			return
		}
		if !info.IsActive {
			m.reject(w, shared.ErrUnauthenticated)
			return
		}
		id := shared.Identity{
			UserID:       info.ID,
			TenantID:     info.TenantID,
			IsSuperAdmin: info.IsSuperAdmin,
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// RequireTenant rejects requests whose identity is not bound to a tenant.
// Tenant-scoped management endpoints mount this after Authenticate so a
// missing tenant is a distinct, visible failure rather than a silent default.
func (m Middleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			m.reject(w, shared.ErrUnauthenticated)
			return
		}
		if !id.IsSuperAdmin {
			if _, err := id.Tenant(); err != nil {
				httpx.RespondError(w, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) reject(w http.ResponseWriter, err error) {
	if m.Logger != nil {
		m.Logger.Debug("authentication rejected", slog.Any("error", err))
	}
	httpx.RespondError(w, shared.ErrUnauthenticated)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
