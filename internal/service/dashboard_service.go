package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cefib-pe/cefib-admin-api/internal/models"
)

type dashboardRepository interface {
	Summary(ctx context.Context) (*models.DashboardSummary, error)
}

// DashboardService composes the back office counters.
type DashboardService struct {
	repo   dashboardRepository
	cache  cacheStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(repo dashboardRepository, cache cacheStore, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// Summary returns the counters and whether they came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	var cached models.DashboardSummary
	if s.cache != nil && s.cache.Get(ctx, CacheKeyDashboard, &cached) {
		return &cached, true, nil
	}

	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, false, internalError(err, "no se pudo cargar el panel")
	}
	summary.GeneratedAt = s.now().UTC()
	if s.cache != nil {
		s.cache.Set(ctx, CacheKeyDashboard, summary, s.ttl)
	}
	return summary, false, nil
}
