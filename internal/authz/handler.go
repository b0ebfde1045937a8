package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/platform/httpx"
	"github.com/aegis-iam/aegis/internal/shared"
)

// Handler exposes the decision probe endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers authorization probe routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/check", h.check)
}

type checkResponse struct {
	PermissionCode string `json:"permission_code"`
	ScopeType      string `json:"scope_type,omitempty"`
	ScopeID        string `json:"scope_id,omitempty"`
	Allowed        bool   `json:"allowed"`
}

// check resolves a decision for the calling identity:
// GET /authz/check?code=reports.view&scope_type=site&scope_id=<uuid>
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	code := shared.NormalizeCode(r.URL.Query().Get("code"))
	if code == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "code query parameter is required")
		return
	}
	scope, err := scopeFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	allowed, err := h.service.Check(r.Context(), id, code, scope)
	if err != nil {
		h.logger.Error("authz check failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := checkResponse{PermissionCode: code, Allowed: allowed}
	if scope != nil {
		resp.ScopeType = scope.Type
		resp.ScopeID = scope.ID.String()
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// scopeFromQuery reads the optional scope pair; both fields must be present
// or absent.
func scopeFromQuery(r *http.Request) (*Scope, error) {
	scopeType := shared.NormalizeScopeType(r.URL.Query().Get("scope_type"))
	rawID := r.URL.Query().Get("scope_id")
	if scopeType == "" && rawID == "" {
		return nil, nil
	}
	if scopeType == "" || rawID == "" {
		return nil, shared.ErrValidation
	}
	scopeID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, shared.ErrValidation
	}
	return &Scope{Type: scopeType, ID: scopeID}, nil
}
