package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/authz"
	"github.com/aegis-iam/aegis/internal/platform/httpx"
	"github.com/aegis-iam/aegis/internal/shared"
)

// Handler manages role administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	authz    authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		authz:    authz,
	}
}

// MountRoutes registers role management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny("roles.view", "roles.edit"))
		r.Get("/", h.list)
		r.Get("/{roleID}", h.get)
		r.Get("/{roleID}/permissions", h.permissions)
		r.Get("/{roleID}/scopes/{scopeType}/{scopeID}/permissions", h.scopedPermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAll("roles.edit"))
		r.Post("/", h.create)
		r.Put("/{roleID}", h.update)
		r.Put("/{roleID}/permissions", h.setPermissions)
		r.Put("/{roleID}/scopes/{scopeType}/{scopeID}/permissions", h.setScopedPermissions)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	list, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req CreateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	role, err := h.service.Get(r.Context(), actor, roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req UpdateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.Update(r.Context(), actor, roleID, req)
	if err != nil {
		h.logger.Error("update role", slog.String("role_id", roleID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) permissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	codes, err := h.service.PermissionCodes(r.Context(), actor, roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permission_codes": codes})
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req SetPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	codes, err := h.service.SetPermissions(r.Context(), actor, roleID, req)
	if err != nil {
		h.logger.Error("set role permissions", slog.String("role_id", roleID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permission_codes": codes})
}

func (h *Handler) scopedPermissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	roleID, scopeType, scopeID, err := scopedParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	effects, err := h.service.ScopedPermissionEffects(r.Context(), actor, roleID, scopeType, scopeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, effects)
}

func (h *Handler) setScopedPermissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	roleID, scopeType, scopeID, err := scopedParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SetScopedPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	effects, err := h.service.SetScopedPermissions(r.Context(), actor, roleID, scopeType, scopeID, req)
	if err != nil {
		h.logger.Error("set scoped permissions", slog.String("role_id", roleID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, effects)
}

func scopedParams(r *http.Request) (uuid.UUID, string, uuid.UUID, error) {
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		return uuid.Nil, "", uuid.Nil, shared.ErrNotFound
	}
	scopeType := shared.NormalizeScopeType(chi.URLParam(r, "scopeType"))
	scopeID, err := uuid.Parse(chi.URLParam(r, "scopeID"))
	if err != nil || scopeType == "" {
		return uuid.Nil, "", uuid.Nil, shared.ErrValidation
	}
	return roleID, scopeType, scopeID, nil
}
