package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed access to the permission catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns all active permissions ordered by code.
func (r *Repository) ListActive(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, is_active FROM permissions WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.IsActive); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ResolveActive maps normalized codes to permission ids, returning only codes
// that exist and are active.
func (r *Repository) ResolveActive(ctx context.Context, codes []string) (map[string]uuid.UUID, error) {
	resolved := make(map[string]uuid.UUID, len(codes))
	if len(codes) == 0 {
		return resolved, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT code, id FROM permissions WHERE is_active AND code = ANY($1)`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var id uuid.UUID
		if err := rows.Scan(&code, &id); err != nil {
			return nil, err
		}
		resolved[code] = id
	}
	return resolved, rows.Err()
}
