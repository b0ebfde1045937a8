package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/shared"
)

type stubTimelineRepo struct {
	rows     []TimelineRow
	lastCall WindowParams
}

func (s *stubTimelineRepo) TimelineWindow(ctx context.Context, p WindowParams) ([]TimelineRow, error) {
	s.lastCall = p
	limit := int(p.LimitRows)
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

func mockRow(ts, action, entity, entityID string) TimelineRow {
	tval, _ := time.Parse(time.RFC3339, ts)
	return TimelineRow{At: tval, ActorID: uuid.New(), Action: action, Entity: entity, EntityID: entityID}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{
		rows: []TimelineRow{
			mockRow("2026-03-10T10:00:00Z", "role.update", "role", "1"),
			mockRow("2026-03-09T09:00:00Z", "role.set_permissions", "role", "2"),
			mockRow("2026-03-08T08:00:00Z", "user_role.assign", "user_role_assignment", "3"),
		},
	}
	svc := NewService(repo)
	tenantID := uuid.New()
	actor := shared.Identity{UserID: uuid.New(), TenantID: &tenantID}

	result, err := svc.Timeline(context.Background(), actor, TimelineFilters{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Paging.HasNext {
		t.Fatalf("expected hasNext true")
	}
	if result.Paging.NextPage != 2 {
		t.Fatalf("expected nextPage 2, got %d", result.Paging.NextPage)
	}
	if repo.lastCall.LimitRows != 3 {
		t.Fatalf("expected limitRows 3, got %d", repo.lastCall.LimitRows)
	}
	if repo.lastCall.OffsetRows != 0 {
		t.Fatalf("expected offset 0, got %d", repo.lastCall.OffsetRows)
	}
	if repo.lastCall.TenantID == nil || *repo.lastCall.TenantID != tenantID {
		t.Fatalf("expected tenant filter %s, got %v", tenantID, repo.lastCall.TenantID)
	}
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	tenantID := uuid.New()
	actor := shared.Identity{UserID: uuid.New(), TenantID: &tenantID}

	if _, err := svc.Timeline(context.Background(), actor, TimelineFilters{Page: -3, PageSize: 500}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastCall.LimitRows != 51 {
		t.Fatalf("expected limitRows 51, got %d", repo.lastCall.LimitRows)
	}
	if repo.lastCall.OffsetRows != 0 {
		t.Fatalf("expected offset 0, got %d", repo.lastCall.OffsetRows)
	}
}

func TestServiceTimelineSuperadminSeesAllTenants(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	admin := shared.Identity{UserID: uuid.New(), IsSuperAdmin: true}

	if _, err := svc.Timeline(context.Background(), admin, TimelineFilters{}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastCall.TenantID != nil {
		t.Fatalf("expected no tenant filter for superadmin")
	}
}

func TestServiceTimelineRequiresTenant(t *testing.T) {
	svc := NewService(&stubTimelineRepo{})
	_, err := svc.Timeline(context.Background(), shared.Identity{UserID: uuid.New()}, TimelineFilters{})
	if err == nil {
		t.Fatalf("expected error for tenantless actor")
	}
}
