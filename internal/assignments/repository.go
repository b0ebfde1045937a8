package assignments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-iam/aegis/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for user role assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches one assignment by id with its role denormalization.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (UserRoleAssignment, error) {
	var a UserRoleAssignment
	err := r.pool.QueryRow(ctx,
		`SELECT ura.id, ura.user_id, ura.role_id, r.code, r.name, ura.scope_type, ura.scope_id, ura.created_at
		 FROM user_role_assignments ura
		 JOIN roles r ON r.id = ura.role_id
		 WHERE ura.id = $1`, id).
		Scan(&a.ID, &a.UserID, &a.RoleID, &a.RoleCode, &a.RoleName, &a.ScopeType, &a.ScopeID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRoleAssignment{}, shared.ErrNotFound
		}
		return UserRoleAssignment{}, err
	}
	return a, nil
}

// ListForUser returns a user's assignments ordered by role name.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]UserRoleAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ura.id, ura.user_id, ura.role_id, r.code, r.name, ura.scope_type, ura.scope_id, ura.created_at
		 FROM user_role_assignments ura
		 JOIN roles r ON r.id = ura.role_id
		 WHERE ura.user_id = $1
		 ORDER BY r.name, ura.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []UserRoleAssignment
	for rows.Next() {
		var a UserRoleAssignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoleID, &a.RoleCode, &a.RoleName,
			&a.ScopeType, &a.ScopeID, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Find locates an assignment by its natural key. NULL scope columns match a
// nil pair.
func (r *Repository) Find(ctx context.Context, userID, roleID uuid.UUID, scopeType *string, scopeID *uuid.UUID) (UserRoleAssignment, error) {
	var a UserRoleAssignment
	err := r.pool.QueryRow(ctx,
		`SELECT ura.id, ura.user_id, ura.role_id, r.code, r.name, ura.scope_type, ura.scope_id, ura.created_at
		 FROM user_role_assignments ura
		 JOIN roles r ON r.id = ura.role_id
		 WHERE ura.user_id = $1 AND ura.role_id = $2
		   AND ura.scope_type IS NOT DISTINCT FROM $3
		   AND ura.scope_id IS NOT DISTINCT FROM $4`,
		userID, roleID, scopeType, scopeID).
		Scan(&a.ID, &a.UserID, &a.RoleID, &a.RoleCode, &a.RoleName, &a.ScopeType, &a.ScopeID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRoleAssignment{}, shared.ErrNotFound
		}
		return UserRoleAssignment{}, err
	}
	return a, nil
}

// Create inserts a new assignment. A concurrent duplicate surfaces ErrConflict.
func (r *Repository) Create(ctx context.Context, a UserRoleAssignment) (UserRoleAssignment, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO user_role_assignments (id, user_id, role_id, scope_type, scope_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		a.ID, a.UserID, a.RoleID, a.ScopeType, a.ScopeID).
		Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return UserRoleAssignment{}, shared.ErrConflict
		}
		return UserRoleAssignment{}, err
	}
	return a, nil
}

// Delete removes an assignment by id and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_role_assignments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
