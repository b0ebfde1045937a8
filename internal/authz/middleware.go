package authz

import (
	"log/slog"
	"net/http"

	"github.com/aegis-iam/aegis/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers. Checks here are
// unscoped: route-level guards cover tenant-wide management permissions, and
// scoped checks happen inside handlers that know the resource.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAny ensures the caller holds at least one of the required
// permissions. Superadmins pass unconditionally.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := shared.NormalizeCodes(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, code := range normalized {
				allowed, err := m.Service.Check(r.Context(), id, code, nil)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("authz require any", slog.Any("error", err))
					}
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				if allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the caller holds every required permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := shared.NormalizeCodes(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, code := range normalized {
				allowed, err := m.Service.Check(r.Context(), id, code, nil)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("authz require all", slog.Any("error", err))
					}
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				if !allowed {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
