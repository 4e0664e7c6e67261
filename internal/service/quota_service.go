package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/analytics"
	"github.com/jengzang/quota-backend-go/internal/repository"
)

// QuotaService computes per-period resource usage against quotas straight
// from work records, independent of the daily pre-aggregation.
type QuotaService struct {
	groups  *repository.ResourceGroupRepository
	records *repository.WorkRecordRepository
	now     func() time.Time
}

// NewQuotaService creates a new quota service
func NewQuotaService(groups *repository.ResourceGroupRepository, records *repository.WorkRecordRepository) *QuotaService {
	return &QuotaService{groups: groups, records: records, now: time.Now}
}

// Stats reads the longest period once and evaluates every period from it
func (s *QuotaService) Stats(ctx context.Context, userID int64) (*analytics.QuotaStats, error) {
	now := s.now()

	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource groups: %w", err)
	}

	from := now.AddDate(0, 0, -analytics.LongestPeriodDays())
	// ListBetween is half-open; the calculator wants now included
	records, err := s.records.ListBetween(ctx, userID, from, now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to load work records: %w", err)
	}

	return analytics.CalculateQuotaStats(groups, records, now), nil
}
