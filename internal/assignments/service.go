package assignments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/identity"
	"github.com/aegis-iam/aegis/internal/roles"
	"github.com/aegis-iam/aegis/internal/shared"
	"github.com/aegis-iam/aegis/internal/tenancy"
)

// RepositoryPort defines data access methods for assignments.
type RepositoryPort interface {
	Get(ctx context.Context, id uuid.UUID) (UserRoleAssignment, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]UserRoleAssignment, error)
	Find(ctx context.Context, userID, roleID uuid.UUID, scopeType *string, scopeID *uuid.UUID) (UserRoleAssignment, error)
	Create(ctx context.Context, a UserRoleAssignment) (UserRoleAssignment, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserPort looks up target user security attributes.
type UserPort interface {
	SecurityInfo(ctx context.Context, userID uuid.UUID) (identity.UserInfo, error)
}

// RolePort fetches roles for tenancy checks.
type RolePort interface {
	Get(ctx context.Context, id uuid.UUID) (roles.Role, error)
}

// AuditPort records before/after snapshots for mutating operations.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditEntry) error
}

// Invalidator bumps the decision cache version after grant-affecting writes.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service handles user role assignment business logic.
type Service struct {
	repo        RepositoryPort
	users       UserPort
	roles       RolePort
	audit       AuditPort
	invalidator Invalidator
	logger      *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, users UserPort, rolePort RolePort, audit AuditPort, invalidator Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, users: users, roles: rolePort, audit: audit, invalidator: invalidator, logger: logger}
}

// ListForUser returns the target user's assignments ordered by role name.
func (s *Service) ListForUser(ctx context.Context, actor shared.Identity, userID uuid.UUID) ([]UserRoleAssignment, error) {
	if _, err := s.guardUser(ctx, actor, userID); err != nil {
		return nil, err
	}
	return s.repo.ListForUser(ctx, userID)
}

// Assign grants a role to a user, optionally narrowed to one scope instance.
// Assigning an already-held role with the same scope is a no-op returning the
// existing assignment.
func (s *Service) Assign(ctx context.Context, actor shared.Identity, userID uuid.UUID, req AssignRequest) (UserRoleAssignment, error) {
	target, err := s.guardUser(ctx, actor, userID)
	if err != nil {
		return UserRoleAssignment{}, err
	}
	if err := tenancy.NotSuperadmin(target.IsSuperAdmin); err != nil {
		return UserRoleAssignment{}, err
	}
	role, err := s.roles.Get(ctx, req.RoleID)
	if err != nil {
		return UserRoleAssignment{}, err
	}
	if err := s.guardRole(actor, role); err != nil {
		return UserRoleAssignment{}, err
	}
	scopeType, scopeID, err := normalizeScope(req.ScopeType, req.ScopeID)
	if err != nil {
		return UserRoleAssignment{}, err
	}

	existing, err := s.repo.Find(ctx, userID, role.ID, scopeType, scopeID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return UserRoleAssignment{}, err
	}

	created, err := s.repo.Create(ctx, UserRoleAssignment{
		ID:        uuid.New(),
		UserID:    userID,
		RoleID:    role.ID,
		ScopeType: scopeType,
		ScopeID:   scopeID,
	})
	if errors.Is(err, shared.ErrConflict) {
		// Lost a race against an identical assign; the winner's row serves.
		return s.repo.Find(ctx, userID, role.ID, scopeType, scopeID)
	}
	if err != nil {
		return UserRoleAssignment{}, err
	}
	created.RoleCode = role.Code
	created.RoleName = role.Name

	s.record(ctx, shared.AuditEntry{
		ActorID:  actor.UserID,
		TenantID: target.TenantID,
		Action:   "user_role.assign",
		Entity:   "user_role_assignment",
		EntityID: created.ID.String(),
		After:    created,
		Message:  fmt.Sprintf("Assigned role %q to user %s", role.Code, userID),
	})
	s.bump(ctx)
	return created, nil
}

// Remove deletes one assignment from the target user. Removing an assignment
// that is already gone succeeds without effect.
func (s *Service) Remove(ctx context.Context, actor shared.Identity, userID, assignmentID uuid.UUID) error {
	target, err := s.guardUser(ctx, actor, userID)
	if err != nil {
		return err
	}
	if err := tenancy.NotSuperadmin(target.IsSuperAdmin); err != nil {
		return err
	}
	before, err := s.repo.Get(ctx, assignmentID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if before.UserID != userID {
		return shared.ErrNotFound
	}
	deleted, err := s.repo.Delete(ctx, assignmentID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}
	s.record(ctx, shared.AuditEntry{
		ActorID:  actor.UserID,
		TenantID: target.TenantID,
		Action:   "user_role.remove",
		Entity:   "user_role_assignment",
		EntityID: assignmentID.String(),
		Before:   before,
		Message:  fmt.Sprintf("Removed role %q from user %s", before.RoleCode, userID),
	})
	s.bump(ctx)
	return nil
}

// guardUser loads the target user and enforces the tenant boundary. A user in
// another tenant is indistinguishable from a missing one.
func (s *Service) guardUser(ctx context.Context, actor shared.Identity, userID uuid.UUID) (identity.UserInfo, error) {
	target, err := s.users.SecurityInfo(ctx, userID)
	if err != nil {
		return identity.UserInfo{}, err
	}
	if actor.IsSuperAdmin {
		return target, nil
	}
	tenantID, err := actor.Tenant()
	if err != nil {
		return identity.UserInfo{}, err
	}
	if err := tenancy.SameTenant(target.TenantID, &tenantID); err != nil {
		return identity.UserInfo{}, err
	}
	return target, nil
}

func (s *Service) guardRole(actor shared.Identity, role roles.Role) error {
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

// normalizeScope validates the optional scope pair: both fields present or
// both absent.
func normalizeScope(rawType string, scopeID *uuid.UUID) (*string, *uuid.UUID, error) {
	scopeType := shared.NormalizeScopeType(rawType)
	hasType := scopeType != ""
	hasID := scopeID != nil && *scopeID != uuid.Nil
	if !hasType && !hasID {
		return nil, nil, nil
	}
	if !hasType || !hasID {
		return nil, nil, fmt.Errorf("%w: scope type and scope id must be provided together", shared.ErrValidation)
	}
	id := *scopeID
	return &scopeType, &id, nil
}
