package assignments

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-iam/aegis/internal/identity"
	"github.com/aegis-iam/aegis/internal/roles"
	"github.com/aegis-iam/aegis/internal/shared"
)

type memRepo struct {
	rows  map[uuid.UUID]UserRoleAssignment
	names map[uuid.UUID]roles.Role
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]UserRoleAssignment), names: make(map[uuid.UUID]roles.Role)}
}

func (m *memRepo) enrich(a UserRoleAssignment) UserRoleAssignment {
	if role, ok := m.names[a.RoleID]; ok {
		a.RoleCode = role.Code
		a.RoleName = role.Name
	}
	return a
}

func (m *memRepo) Get(ctx context.Context, id uuid.UUID) (UserRoleAssignment, error) {
	a, ok := m.rows[id]
	if !ok {
		return UserRoleAssignment{}, shared.ErrNotFound
	}
	return m.enrich(a), nil
}

func (m *memRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]UserRoleAssignment, error) {
	var out []UserRoleAssignment
	for _, a := range m.rows {
		if a.UserID == userID {
			out = append(out, m.enrich(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleName < out[j].RoleName })
	return out, nil
}

func (m *memRepo) Find(ctx context.Context, userID, roleID uuid.UUID, scopeType *string, scopeID *uuid.UUID) (UserRoleAssignment, error) {
	for _, a := range m.rows {
		if a.UserID != userID || a.RoleID != roleID {
			continue
		}
		if sameScope(a.ScopeType, scopeType) && sameID(a.ScopeID, scopeID) {
			return m.enrich(a), nil
		}
	}
	return UserRoleAssignment{}, shared.ErrNotFound
}

func (m *memRepo) Create(ctx context.Context, a UserRoleAssignment) (UserRoleAssignment, error) {
	m.rows[a.ID] = a
	return a, nil
}

func (m *memRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func sameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type memUsers struct {
	users map[uuid.UUID]identity.UserInfo
}

func (m *memUsers) SecurityInfo(ctx context.Context, userID uuid.UUID) (identity.UserInfo, error) {
	info, ok := m.users[userID]
	if !ok {
		return identity.UserInfo{}, shared.ErrNotFound
	}
	return info, nil
}

type memRoles struct {
	roles map[uuid.UUID]roles.Role
}

func (m *memRoles) Get(ctx context.Context, id uuid.UUID) (roles.Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return roles.Role{}, shared.ErrNotFound
	}
	return role, nil
}

type recordingAudit struct {
	entries []shared.AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, entry shared.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type countingBumper struct{ count int }

func (c *countingBumper) Bump(ctx context.Context) error {
	c.count++
	return nil
}

type world struct {
	svc    *Service
	repo   *memRepo
	audit  *recordingAudit
	bumper *countingBumper
	actor  shared.Identity
	tenant uuid.UUID
	user   uuid.UUID
	role   roles.Role
}

func newWorld(t *testing.T) *world {
	t.Helper()
	tenant := uuid.New()
	user := uuid.New()
	role := roles.Role{ID: uuid.New(), TenantID: &tenant, Code: "auditor", Name: "Auditor", IsActive: true}

	repo := newMemRepo()
	repo.names[role.ID] = role
	users := &memUsers{users: map[uuid.UUID]identity.UserInfo{
		user: {ID: user, TenantID: &tenant, IsActive: true},
	}}
	rolePort := &memRoles{roles: map[uuid.UUID]roles.Role{role.ID: role}}
	audit := &recordingAudit{}
	bumper := &countingBumper{}

	return &world{
		svc:    NewService(repo, users, rolePort, audit, bumper, nil),
		repo:   repo,
		audit:  audit,
		bumper: bumper,
		actor:  shared.Identity{UserID: uuid.New(), TenantID: &tenant},
		tenant: tenant,
		user:   user,
		role:   role,
	}
}

func TestAssignGlobalRole(t *testing.T) {
	w := newWorld(t)

	a, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{RoleID: w.role.ID})
	require.NoError(t, err)
	assert.True(t, a.Global())
	assert.Equal(t, "auditor", a.RoleCode)
	assert.Equal(t, 1, w.bumper.count)
	require.Len(t, w.audit.entries, 1)
	assert.Equal(t, "user_role.assign", w.audit.entries[0].Action)
}

func TestAssignScopedRoleNormalizesScopeType(t *testing.T) {
	w := newWorld(t)
	siteID := uuid.New()

	a, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{
		RoleID:    w.role.ID,
		ScopeType: " Site ",
		ScopeID:   &siteID,
	})
	require.NoError(t, err)
	require.NotNil(t, a.ScopeType)
	assert.Equal(t, "site", *a.ScopeType)
	assert.Equal(t, siteID, *a.ScopeID)
}

func TestAssignHalfScopeRejected(t *testing.T) {
	w := newWorld(t)
	siteID := uuid.New()

	_, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{
		RoleID:    w.role.ID,
		ScopeType: "site",
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{
		RoleID:  w.role.ID,
		ScopeID: &siteID,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestAssignIsIdempotent(t *testing.T) {
	w := newWorld(t)

	first, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{RoleID: w.role.ID})
	require.NoError(t, err)
	second, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{RoleID: w.role.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, w.repo.rows, 1)
	assert.Equal(t, 1, w.bumper.count, "repeat assign must not bump the cache")
}

func TestAssignToCrossTenantUserLooksMissing(t *testing.T) {
	w := newWorld(t)
	otherTenant := uuid.New()
	outsider := shared.Identity{UserID: uuid.New(), TenantID: &otherTenant}

	_, err := w.svc.Assign(context.Background(), outsider, w.user, AssignRequest{RoleID: w.role.ID})
	assert.ErrorIs(t, err, shared.ErrCrossTenant)
	assert.Empty(t, w.repo.rows)
}

func TestAssignCrossTenantRoleLooksMissing(t *testing.T) {
	w := newWorld(t)
	otherTenant := uuid.New()
	foreignRole := roles.Role{ID: uuid.New(), TenantID: &otherTenant, Code: "other", Name: "Other", IsActive: true}
	w.svc.roles.(*memRoles).roles[foreignRole.ID] = foreignRole

	_, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{RoleID: foreignRole.ID})
	assert.ErrorIs(t, err, shared.ErrCrossTenant)
}

func TestAssignToSuperadminForbidden(t *testing.T) {
	w := newWorld(t)
	admin := uuid.New()
	w.svc.users.(*memUsers).users[admin] = identity.UserInfo{ID: admin, TenantID: &w.tenant, IsSuperAdmin: true, IsActive: true}

	_, err := w.svc.Assign(context.Background(), w.actor, admin, AssignRequest{RoleID: w.role.ID})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSuperadminActorCrossesTenants(t *testing.T) {
	w := newWorld(t)
	admin := shared.Identity{UserID: uuid.New(), IsSuperAdmin: true}

	a, err := w.svc.Assign(context.Background(), admin, w.user, AssignRequest{RoleID: w.role.ID})
	require.NoError(t, err)
	assert.Equal(t, w.role.ID, a.RoleID)
}

func TestListForUserOrderedByRoleName(t *testing.T) {
	w := newWorld(t)
	zebra := roles.Role{ID: uuid.New(), TenantID: &w.tenant, Code: "zebra", Name: "Zebra", IsActive: true}
	w.svc.roles.(*memRoles).roles[zebra.ID] = zebra
	w.repo.names[zebra.ID] = zebra

	_, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{RoleID: zebra.ID})
	require.NoError(t, err)
	_, err = w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{RoleID: w.role.ID})
	require.NoError(t, err)

	list, err := w.svc.ListForUser(context.Background(), w.actor, w.user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Auditor", list[0].RoleName)
	assert.Equal(t, "Zebra", list[1].RoleName)
}

func TestRemoveAssignment(t *testing.T) {
	w := newWorld(t)
	a, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{RoleID: w.role.ID})
	require.NoError(t, err)

	require.NoError(t, w.svc.Remove(context.Background(), w.actor, w.user, a.ID))
	assert.Empty(t, w.repo.rows)
	require.Len(t, w.audit.entries, 2)
	entry := w.audit.entries[1]
	assert.Equal(t, "user_role.remove", entry.Action)
	assert.Equal(t, a.ID, entry.Before.(UserRoleAssignment).ID)
	assert.Equal(t, 2, w.bumper.count)
}

func TestRemoveMissingAssignmentIsNoop(t *testing.T) {
	w := newWorld(t)

	require.NoError(t, w.svc.Remove(context.Background(), w.actor, w.user, uuid.New()))
	assert.Empty(t, w.audit.entries)
	assert.Equal(t, 0, w.bumper.count)
}

func TestRemoveOtherUsersAssignmentLooksMissing(t *testing.T) {
	w := newWorld(t)
	other := uuid.New()
	w.svc.users.(*memUsers).users[other] = identity.UserInfo{ID: other, TenantID: &w.tenant, IsActive: true}
	a, err := w.svc.Assign(context.Background(), w.actor, w.user, AssignRequest{RoleID: w.role.ID})
	require.NoError(t, err)

	err = w.svc.Remove(context.Background(), w.actor, other, a.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Len(t, w.repo.rows, 1, "the assignment must survive")
}
