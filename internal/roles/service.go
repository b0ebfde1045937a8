package roles

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/shared"
	"github.com/aegis-iam/aegis/internal/tenancy"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	Get(ctx context.Context, id uuid.UUID) (Role, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, id, tenantID uuid.UUID, name, description string, isActive bool) (int64, error)
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error
	PermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error)
	ReplaceScoped(ctx context.Context, roleID uuid.UUID, scopeType string, scopeID uuid.UUID, grants []ScopedGrant) error
	ScopedEntries(ctx context.Context, roleID uuid.UUID, scopeType string, scopeID uuid.UUID) ([]ScopedEntry, error)
}

// CatalogPort resolves permission codes against the catalog.
type CatalogPort interface {
	ResolveCodes(ctx context.Context, codes []string) (map[string]uuid.UUID, error)
}

// AuditPort records before/after snapshots for mutating operations.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditEntry) error
}

// Invalidator bumps the decision cache version after grant-affecting writes.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service handles role management business logic.
type Service struct {
	repo        RepositoryPort
	catalog     CatalogPort
	audit       AuditPort
	invalidator Invalidator
	logger      *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, catalog CatalogPort, audit AuditPort, invalidator Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, audit: audit, invalidator: invalidator, logger: logger}
}

// List returns the acting tenant's active roles ordered by name.
func (s *Service) List(ctx context.Context, actor shared.Identity) ([]Role, error) {
	tenantID, err := actor.Tenant()
	if err != nil {
		return nil, err
	}
	return s.repo.ListForTenant(ctx, tenantID)
}

// Create inserts a new tenant role. New roles are never system roles and start
// active with no granted permissions.
func (s *Service) Create(ctx context.Context, actor shared.Identity, req CreateRoleRequest) (Role, error) {
	tenantID, err := actor.Tenant()
	if err != nil {
		return Role{}, err
	}
	code := shared.NormalizeCode(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return Role{}, fmt.Errorf("%w: role code and name are required", shared.ErrValidation)
	}
	role, err := s.repo.Create(ctx, Role{
		ID:          uuid.New(),
		TenantID:    &tenantID,
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	})
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, shared.AuditEntry{
		ActorID:  actor.UserID,
		TenantID: &tenantID,
		Action:   "role.create",
		Entity:   "role",
		EntityID: role.ID.String(),
		After:    role,
		Message:  fmt.Sprintf("Created role %q", role.Code),
	})
	return role, nil
}

// Get fetches a role visible to the actor. Cross-tenant ids surface the same
// error as missing ones.
func (s *Service) Get(ctx context.Context, actor shared.Identity, roleID uuid.UUID) (Role, error) {
	role, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	if err := s.guardRole(actor, role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// Update mutates a role's name, description, and active flag. System roles and
// cross-tenant roles are untouchable; both surface ErrNotFound.
func (s *Service) Update(ctx context.Context, actor shared.Identity, roleID uuid.UUID, req UpdateRoleRequest) (Role, error) {
	tenantID, err := actor.Tenant()
	if err != nil {
		return Role{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	before, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	rows, err := s.repo.Update(ctx, roleID, tenantID, name, strings.TrimSpace(req.Description), req.IsActive)
	if err != nil {
		return Role{}, err
	}
	if rows == 0 {
		return Role{}, shared.ErrNotFound
	}
	after, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, shared.AuditEntry{
		ActorID:  actor.UserID,
		TenantID: &tenantID,
		Action:   "role.update",
		Entity:   "role",
		EntityID: roleID.String(),
		Before:   before,
		After:    after,
		Message:  fmt.Sprintf("Updated role %q", before.Code),
	})
	s.bump(ctx)
	return after, nil
}

// SetPermissions atomically replaces a role's global grant set. Every
// requested code must resolve to an active catalog entry; otherwise nothing is
// applied and the offending codes are reported.
func (s *Service) SetPermissions(ctx context.Context, actor shared.Identity, roleID uuid.UUID, req SetPermissionsRequest) ([]string, error) {
	role, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := s.guardRole(actor, role); err != nil {
		return nil, err
	}
	requested := shared.NormalizeCodes(req.PermissionCodes)
	resolved, err := s.catalog.ResolveCodes(ctx, requested)
	if err != nil {
		return nil, err
	}
	if missing := missingCodes(requested, resolved); len(missing) > 0 {
		return nil, &shared.UnknownPermissionCodeError{Codes: missing}
	}
	before, err := s.repo.PermissionCodes(ctx, roleID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(resolved))
	for _, code := range requested {
		ids = append(ids, resolved[code])
	}
	if err := s.repo.ReplacePermissions(ctx, roleID, ids); err != nil {
		return nil, err
	}
	after, err := s.repo.PermissionCodes(ctx, roleID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditEntry{
		ActorID:  actor.UserID,
		TenantID: role.TenantID,
		Action:   "role.set_permissions",
		Entity:   "role",
		EntityID: roleID.String(),
		Before:   map[string]any{"permissions": before},
		After:    map[string]any{"permissions": after},
		Message:  fmt.Sprintf("Updated permissions for role %q", role.Code),
	})
	s.bump(ctx)
	return after, nil
}

// PermissionCodes returns a role's globally granted codes ordered by code.
func (s *Service) PermissionCodes(ctx context.Context, actor shared.Identity, roleID uuid.UUID) ([]string, error) {
	role, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := s.guardRole(actor, role); err != nil {
		return nil, err
	}
	return s.repo.PermissionCodes(ctx, roleID)
}

// SetScopedPermissions atomically replaces the override set for
// (role, scopeType, scopeID) with the supplied allow/deny entries. Validation
// is all-or-nothing: unknown codes reject the whole request, and a code listed
// under both effects is a caller error.
func (s *Service) SetScopedPermissions(ctx context.Context, actor shared.Identity, roleID uuid.UUID, scopeType string, scopeID uuid.UUID, req SetScopedPermissionsRequest) (ScopedEffects, error) {
	role, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return ScopedEffects{}, err
	}
	if err := s.guardRole(actor, role); err != nil {
		return ScopedEffects{}, err
	}
	scopeType = shared.NormalizeScopeType(scopeType)
	if scopeType == "" || scopeID == uuid.Nil {
		return ScopedEffects{}, fmt.Errorf("%w: scope type and scope id are required", shared.ErrValidation)
	}
	allow := shared.NormalizeCodes(req.Allow)
	deny := shared.NormalizeCodes(req.Deny)
	if overlap := intersect(allow, deny); len(overlap) > 0 {
		return ScopedEffects{}, fmt.Errorf("%w: codes listed as both allow and deny: %s",
			shared.ErrValidation, strings.Join(overlap, ", "))
	}
	union := append(append([]string{}, allow...), deny...)
	resolved, err := s.catalog.ResolveCodes(ctx, union)
	if err != nil {
		return ScopedEffects{}, err
	}
	if missing := missingCodes(union, resolved); len(missing) > 0 {
		return ScopedEffects{}, &shared.UnknownPermissionCodeError{Codes: missing}
	}
	before, err := s.repo.ScopedEntries(ctx, roleID, scopeType, scopeID)
	if err != nil {
		return ScopedEffects{}, err
	}
	grants := make([]ScopedGrant, 0, len(allow)+len(deny))
	for _, code := range allow {
		grants = append(grants, ScopedGrant{PermissionID: resolved[code], Effect: EffectAllow})
	}
	for _, code := range deny {
		grants = append(grants, ScopedGrant{PermissionID: resolved[code], Effect: EffectDeny})
	}
	if err := s.repo.ReplaceScoped(ctx, roleID, scopeType, scopeID, grants); err != nil {
		return ScopedEffects{}, err
	}
	after, err := s.repo.ScopedEntries(ctx, roleID, scopeType, scopeID)
	if err != nil {
		return ScopedEffects{}, err
	}
	s.record(ctx, shared.AuditEntry{
		ActorID:  actor.UserID,
		TenantID: role.TenantID,
		Action:   "role.set_scoped_permissions",
		Entity:   "role",
		EntityID: roleID.String(),
		Before:   map[string]any{"scope_type": scopeType, "scope_id": scopeID, "entries": before},
		After:    map[string]any{"scope_type": scopeType, "scope_id": scopeID, "entries": after},
		Message:  fmt.Sprintf("Updated scoped permissions for role %q in %s/%s", role.Code, scopeType, scopeID),
	})
	s.bump(ctx)
	return splitEffects(after), nil
}

// ScopedPermissionEffects returns the allow/deny sets for one role and scope.
func (s *Service) ScopedPermissionEffects(ctx context.Context, actor shared.Identity, roleID uuid.UUID, scopeType string, scopeID uuid.UUID) (ScopedEffects, error) {
	role, err := s.repo.Get(ctx, roleID)
	if err != nil {
		return ScopedEffects{}, err
	}
	if err := s.guardRole(actor, role); err != nil {
		return ScopedEffects{}, err
	}
	entries, err := s.repo.ScopedEntries(ctx, roleID, shared.NormalizeScopeType(scopeType), scopeID)
	if err != nil {
		return ScopedEffects{}, err
	}
	return splitEffects(entries), nil
}

func (s *Service) guardRole(actor shared.Identity, role Role) error {
	if actor.IsSuperAdmin {
		return nil
	}
	tenantID, err := actor.Tenant()
	if err != nil {
		return err
	}
	return tenancy.SameTenant(role.TenantID, &tenantID)
}

func (s *Service) record(ctx context.Context, entry shared.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Error("audit record failed", slog.String("action", entry.Action), slog.Any("error", err))
	}
}

func (s *Service) bump(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("decision cache bump failed", slog.Any("error", err))
	}
}

func missingCodes(requested []string, resolved map[string]uuid.UUID) []string {
	var missing []string
	for _, code := range requested {
		if _, ok := resolved[code]; !ok {
			missing = append(missing, code)
		}
	}
	sort.Strings(missing)
	return missing
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, code := range a {
		set[code] = struct{}{}
	}
	var both []string
	for _, code := range b {
		if _, ok := set[code]; ok {
			both = append(both, code)
		}
	}
	sort.Strings(both)
	return both
}

func splitEffects(entries []ScopedEntry) ScopedEffects {
	effects := ScopedEffects{Allow: []string{}, Deny: []string{}}
	for _, entry := range entries {
		switch entry.Effect {
		case EffectAllow:
			effects.Allow = append(effects.Allow, entry.PermissionCode)
		case EffectDeny:
			effects.Deny = append(effects.Deny, entry.PermissionCode)
		}
	}
	return effects
}
