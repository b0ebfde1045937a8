package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/aegis-iam/aegis/internal/shared"
)

// DecisionSource produces authorization decisions.
type DecisionSource interface {
	HasPermission(ctx context.Context, userID uuid.UUID, permissionCode string, scope *Scope) (bool, error)
}

// DecisionMetrics records decision outcomes for observability.
type DecisionMetrics interface {
	RecordDecision(allowed, cached bool)
}

// Service fronts the resolver with the decision cache and collapses
// concurrent identical lookups. Cache failures degrade to direct resolution.
type Service struct {
	source  DecisionSource
	cache   *DecisionCache
	metrics DecisionMetrics
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService builds Service instance. Cache and metrics may be nil.
func NewService(source DecisionSource, cache *DecisionCache, metrics DecisionMetrics, logger *slog.Logger) *Service {
	return &Service{source: source, cache: cache, metrics: metrics, logger: logger}
}

// Check applies the caller-resolved superadmin bypass, then resolves. The
// bypass is an explicit input here; the resolver itself never infers it.
func (s *Service) Check(ctx context.Context, id shared.Identity, permissionCode string, scope *Scope) (bool, error) {
	if id.IsSuperAdmin {
		return true, nil
	}
	return s.HasPermission(ctx, id.UserID, permissionCode, scope)
}

// HasPermission resolves a decision for a user, consulting the cache first.
func (s *Service) HasPermission(ctx context.Context, userID uuid.UUID, permissionCode string, scope *Scope) (bool, error) {
	code := shared.NormalizeCode(permissionCode)
	allowed, hit, err := s.cache.Get(ctx, userID, code, scope)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("decision cache read failed", slog.Any("error", err))
		}
	} else if hit {
		s.observe(allowed, true)
		return allowed, nil
	}

	key := flightKey(userID, code, scope)
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		allowed, err := s.source.HasPermission(ctx, userID, code, scope)
		if err != nil {
			return false, err
		}
		if err := s.cache.Set(ctx, userID, code, scope, allowed); err != nil && s.logger != nil {
			s.logger.Warn("decision cache write failed", slog.Any("error", err))
		}
		return allowed, nil
	})
	if err != nil {
		return false, err
	}
	allowed = value.(bool)
	s.observe(allowed, false)
	return allowed, nil
}

// Bump invalidates all cached decisions. Management services call this after
// any grant-affecting write.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) observe(allowed, cached bool) {
	if s.metrics != nil {
		s.metrics.RecordDecision(allowed, cached)
	}
}

func flightKey(userID uuid.UUID, code string, scope *Scope) string {
	if scope == nil {
		return fmt.Sprintf("%s:%s", userID, code)
	}
	return fmt.Sprintf("%s:%s:%s:%s", userID, code, scope.Type, scope.ID)
}
