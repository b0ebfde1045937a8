package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/aegis-iam/aegis/internal/jobs"
)

// RetentionStore deletes audit rows older than a cutoff.
type RetentionStore interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetentionJob prunes audit entries past the configured retention window.
type AuditRetentionJob struct {
	Store            RetentionStore
	Logger           *slog.Logger
	Metrics          *jobmetrics.Metrics
	DefaultRetention time.Duration
	clock            func() time.Time
}

// NewAuditRetentionJob initialises the retention sweep handler.
func NewAuditRetentionJob(store RetentionStore, logger *slog.Logger, metrics *jobmetrics.Metrics, retention time.Duration) *AuditRetentionJob {
	return &AuditRetentionJob{
		Store:            store,
		Logger:           logger,
		Metrics:          metrics,
		DefaultRetention: retention,
		clock:            func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the retention sweep.
func (j *AuditRetentionJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("audit retention: handler not configured")
	}
	var payload AuditRetentionPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := j.DefaultRetention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}

	tracker := j.Metrics.Track(TaskAuditRetention)
	cutoff := j.clock().Add(-retention)
	deleted, err := j.Store.PurgeBefore(ctx, cutoff)
	if err = tracker.End(err); err != nil {
		if j.Logger != nil {
			j.Logger.Error("audit retention sweep failed", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("audit retention sweep finished",
			slog.String("job", TaskAuditRetention),
			slog.Time("cutoff", cutoff),
			slog.Int64("deleted", deleted))
	}
	return nil
}
