package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/aegis-iam/aegis/internal/jobs"
)

// CatalogIntegrityJob scans grant tables for rows pointing at deactivated
// permissions. Such rows are legal (resolution ignores them) but a steady
// climb usually means a cleanup migration was forgotten.
type CatalogIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCatalogIntegrityJob initialises the integrity scan handler.
func NewCatalogIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogIntegrityJob {
	return &CatalogIntegrityJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the integrity scan.
func (j *CatalogIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("catalog integrity: handler not configured")
	}
	tracker := j.Metrics.Track(TaskCatalogIntegrity)

	var staleGrants, staleOverrides, orphanAssignments int64
	err := j.Pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM role_permissions rp
		      JOIN permissions p ON p.id = rp.permission_id WHERE NOT p.is_active),
		   (SELECT COUNT(*) FROM role_scoped_permissions rsp
		      JOIN permissions p ON p.id = rsp.permission_id WHERE NOT p.is_active),
		   (SELECT COUNT(*) FROM user_role_assignments ura
		      JOIN roles r ON r.id = ura.role_id WHERE NOT r.is_active)`).
		Scan(&staleGrants, &staleOverrides, &orphanAssignments)
	if err = tracker.End(err); err != nil {
		if j.Logger != nil {
			j.Logger.Error("catalog integrity scan failed", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("catalog integrity scan finished",
			slog.String("job", TaskCatalogIntegrity),
			slog.Int64("stale_grants", staleGrants),
			slog.Int64("stale_overrides", staleOverrides),
			slog.Int64("assignments_on_inactive_roles", orphanAssignments))
	}
	return nil
}
