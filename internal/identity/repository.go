package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-iam/aegis/internal/shared"
)

// Repository provides PostgreSQL backed access to user security info.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SecurityInfo loads the tenant binding and superadmin flag for a user.
func (r *Repository) SecurityInfo(ctx context.Context, userID uuid.UUID) (UserInfo, error) {
	var info UserInfo
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, is_superadmin, is_active FROM users WHERE id = $1`, userID).
		Scan(&info.ID, &info.TenantID, &info.IsSuperAdmin, &info.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserInfo{}, shared.ErrNotFound
		}
		return UserInfo{}, err
	}
	return info, nil
}
