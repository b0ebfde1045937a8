package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention prunes audit entries past the retention window.
	TaskAuditRetention = "authz:audit_retention"
	// TaskCatalogIntegrity scans grant tables for dangling references.
	TaskCatalogIntegrity = "authz:catalog_integrity"
	// TaskCacheBump invalidates every cached authorization decision.
	TaskCacheBump = "authz:cache_bump"
)

// AuditRetentionPayload controls how far back the retention sweep keeps rows.
type AuditRetentionPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditRetentionTask constructs the retention sweep task.
func NewAuditRetentionTask(payload AuditRetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// NewCatalogIntegrityTask constructs the integrity scan task.
func NewCatalogIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskCatalogIntegrity, nil)
}

// NewCacheBumpTask constructs the cache invalidation task.
func NewCacheBumpTask() *asynq.Task {
	return asynq.NewTask(TaskCacheBump, nil)
}
