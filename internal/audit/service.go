package audit

import (
	"context"
	"fmt"

	"github.com/aegis-iam/aegis/internal/shared"
)

// RepositoryPort menyediakan akses query yang dibutuhkan timeline.
type RepositoryPort interface {
	TimelineWindow(ctx context.Context, p WindowParams) ([]TimelineRow, error)
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}

// Service mengoordinasikan pengambilan data audit.
type Service struct {
	repo RepositoryPort
}

// NewService membuat service audit timeline baru.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Timeline mengambil data audit dengan paging. Aktor non-superadmin hanya
// melihat tenant miliknya sendiri.
func (s *Service) Timeline(ctx context.Context, actor shared.Identity, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	params := WindowParams{
		From:    filters.From,
		To:      filters.To,
		ActorID: filters.ActorID,
		Entity:  filters.Entity,
		Action:  filters.Action,
	}
	if !actor.IsSuperAdmin {
		tenantID, err := actor.Tenant()
		if err != nil {
			return Result{}, err
		}
		params.TenantID = &tenantID
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	params.OffsetRows = int32((page - 1) * pageSize)
	params.LimitRows = int32(pageSize + 1)

	rows, err := s.repo.TimelineWindow(ctx, params)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	if rows == nil {
		rows = []TimelineRow{}
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}
