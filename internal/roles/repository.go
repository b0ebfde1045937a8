package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-iam/aegis/internal/platform/db"
	"github.com/aegis-iam/aegis/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for roles, their global
// grant sets, and their scoped override sets.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches a role by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, code, name, description, is_system_role, is_active, created_at, updated_at
		 FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.TenantID, &role.Code, &role.Name, &role.Description,
			&role.IsSystemRole, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// ListForTenant returns a tenant's active roles ordered by name.
func (r *Repository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, code, name, description, is_system_role, is_active, created_at, updated_at
		 FROM roles WHERE tenant_id = $1 AND is_active ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Code, &role.Name, &role.Description,
			&role.IsSystemRole, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Create inserts a new role. Duplicate codes within a tenant surface ErrConflict.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (id, tenant_id, code, name, description, is_system_role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		role.ID, role.TenantID, role.Code, role.Name, role.Description, role.IsSystemRole, role.IsActive).
		Scan(&role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Role{}, shared.ErrConflict
		}
		return Role{}, err
	}
	return role, nil
}

// Update mutates a non-system role belonging to the given tenant. The tenant
// and system-role predicates live in the WHERE clause, so a cross-tenant or
// system target is zero rows affected, exactly like a missing id.
func (r *Repository) Update(ctx context.Context, id, tenantID uuid.UUID, name, description string, isActive bool) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET name = $1, description = $2, is_active = $3, updated_at = NOW()
		 WHERE id = $4 AND tenant_id = $5 AND NOT is_system_role`,
		name, description, isActive, id, tenantID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ReplacePermissions swaps the role's entire global grant set in one
// transaction.
func (r *Repository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		seen := make(map[uuid.UUID]struct{}, len(permissionIDs))
		for _, pid := range permissionIDs {
			if _, ok := seen[pid]; ok {
				continue
			}
			seen[pid] = struct{}{}
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, pid); err != nil {
				return err
			}
		}
		return nil
	})
}

// PermissionCodes returns the role's globally granted active permission codes
// ordered by code.
func (r *Repository) PermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.code
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 AND p.is_active
		 ORDER BY p.code`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// ReplaceScoped swaps the override set for (role, scopeType, scopeID) in one
// transaction.
func (r *Repository) ReplaceScoped(ctx context.Context, roleID uuid.UUID, scopeType string, scopeID uuid.UUID, grants []ScopedGrant) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM role_scoped_permissions WHERE role_id = $1 AND scope_type = $2 AND scope_id = $3`,
			roleID, scopeType, scopeID); err != nil {
			return err
		}
		for _, grant := range grants {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_scoped_permissions (role_id, scope_type, scope_id, permission_id, effect)
				 VALUES ($1, $2, $3, $4, $5)`,
				roleID, scopeType, scopeID, grant.PermissionID, grant.Effect); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScopedEntries returns the override set for (role, scopeType, scopeID),
// restricted to active permissions, ordered by code.
func (r *Repository) ScopedEntries(ctx context.Context, roleID uuid.UUID, scopeType string, scopeID uuid.UUID) ([]ScopedEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.code, rsp.effect
		 FROM role_scoped_permissions rsp
		 JOIN permissions p ON p.id = rsp.permission_id
		 WHERE rsp.role_id = $1 AND rsp.scope_type = $2 AND rsp.scope_id = $3 AND p.is_active
		 ORDER BY p.code`, roleID, scopeType, scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []ScopedEntry
	for rows.Next() {
		var entry ScopedEntry
		if err := rows.Scan(&entry.PermissionCode, &entry.Effect); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
