package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

type stubRetentionStore struct {
	cutoff  time.Time
	deleted int64
}

func (s *stubRetentionStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, nil
}

func TestAuditRetentionUsesDefaultWindow(t *testing.T) {
	store := &stubRetentionStore{deleted: 7}
	job := NewAuditRetentionJob(store, nil, nil, 48*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewAuditRetentionTask(AuditRetentionPayload{})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := now.Add(-48 * time.Hour)
	if !store.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, store.cutoff)
	}
}

func TestAuditRetentionPayloadOverridesWindow(t *testing.T) {
	store := &stubRetentionStore{}
	job := NewAuditRetentionJob(store, nil, nil, 48*time.Hour)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewAuditRetentionTask(AuditRetentionPayload{RetentionHours: 24})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := now.Add(-24 * time.Hour)
	if !store.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, store.cutoff)
	}
}

func TestAuditRetentionRejectsMalformedPayload(t *testing.T) {
	job := NewAuditRetentionJob(&stubRetentionStore{}, nil, nil, time.Hour)
	task := asynq.NewTask(TaskAuditRetention, []byte("{not json"))
	if err := job.Handle(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
