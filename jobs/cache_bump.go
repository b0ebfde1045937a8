package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/aegis-iam/aegis/internal/jobs"
)

// Invalidator advances the decision cache version.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// CacheBumpJob invalidates every cached authorization decision. Operators
// enqueue it after out-of-band grant changes, such as manual SQL fixes.
type CacheBumpJob struct {
	Cache   Invalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheBumpJob initialises the cache invalidation handler.
func NewCacheBumpJob(cache Invalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheBumpJob {
	return &CacheBumpJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle executes the invalidation.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("cache bump: handler not configured")
	}
	tracker := j.Metrics.Track(TaskCacheBump)
	err := tracker.End(j.Cache.Bump(ctx))
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("decision cache bump failed", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("decision cache invalidated", slog.String("job", TaskCacheBump))
	}
	return nil
}
