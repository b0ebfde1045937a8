package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/aegis-iam/aegis/internal/shared"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	ListActive(ctx context.Context) ([]Permission, error)
	ResolveActive(ctx context.Context, codes []string) (map[string]uuid.UUID, error)
}

// Service exposes read-only catalog operations to the rest of the engine.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListActive returns active permissions ordered by code.
func (s *Service) ListActive(ctx context.Context) ([]Permission, error) {
	return s.repo.ListActive(ctx)
}

// ResolveCodes maps permission codes to ids. Blank and duplicate input codes
// are ignored after case-insensitive normalization; only active, known codes
// appear in the result. Callers detect unknown codes by comparing the result
// against their normalized input.
func (s *Service) ResolveCodes(ctx context.Context, codes []string) (map[string]uuid.UUID, error) {
	normalized := shared.NormalizeCodes(codes)
	if len(normalized) == 0 {
		return map[string]uuid.UUID{}, nil
	}
	return s.repo.ResolveActive(ctx, normalized)
}
