package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry represents a record stored in audit_logs. Before and After carry
// full snapshots of the mutated entity so the caller side can reconstruct any
// change without consulting other tables.
type AuditEntry struct {
	ActorID  uuid.UUID
	TenantID *uuid.UUID
	Action   string
	Entity   string
	EntityID string
	Before   any
	After    any
	Message  string
	At       time.Time
}

// AuditRecorder writes before/after snapshots into audit_logs.
type AuditRecorder struct {
	pool *pgxpool.Pool
}

// NewAuditRecorder returns a new AuditRecorder.
func NewAuditRecorder(pool *pgxpool.Pool) *AuditRecorder {
	return &AuditRecorder{pool: pool}
}

// Record persists the audit entry.
func (r *AuditRecorder) Record(ctx context.Context, entry AuditEntry) error {
	if r == nil {
		return errors.New("audit recorder not initialised")
	}
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("audit entry requires action/entity/entity_id")
	}
	beforeJSON, err := marshalSnapshot(entry.Before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalSnapshot(entry.After)
	if err != nil {
		return err
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, tenant_id, action, entity, entity_id, before, after, message, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ActorID, entry.TenantID, entry.Action, entry.Entity, entry.EntityID, beforeJSON, afterJSON, entry.Message, at)
	return err
}

func marshalSnapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
