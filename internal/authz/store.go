package authz

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store against PostgreSQL. Reads take the pool's snapshot
// consistency; the resolver tolerates stale-by-one-write state.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore constructs a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// ActiveAssignments returns active assignments whose roles are active.
func (s *PgStore) ActiveAssignments(ctx context.Context, userID uuid.UUID) ([]Assignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ura.role_id, ura.scope_type, ura.scope_id
		 FROM user_role_assignments ura
		 JOIN roles r ON r.id = ura.role_id
		 WHERE ura.user_id = $1 AND ura.is_active AND r.is_active`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.RoleID, &a.ScopeType, &a.ScopeID); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// GrantedCodes returns the role's globally granted active permission codes.
func (s *PgStore) GrantedCodes(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.code
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 AND p.is_active`, roleID)
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

// ScopedEffects returns the role's override set for one exact scope.
func (s *PgStore) ScopedEffects(ctx context.Context, roleID uuid.UUID, scopeType string, scopeID uuid.UUID) (map[string]Effect, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.code, rsp.effect
		 FROM role_scoped_permissions rsp
		 JOIN permissions p ON p.id = rsp.permission_id
		 WHERE rsp.role_id = $1 AND rsp.scope_type = $2 AND rsp.scope_id = $3 AND p.is_active`,
		roleID, scopeType, scopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	effects := make(map[string]Effect)
	for rows.Next() {
		var code string
		var effect Effect
		if err := rows.Scan(&code, &effect); err != nil {
			return nil, err
		}
		effects[code] = effect
	}
	return effects, rows.Err()
}
