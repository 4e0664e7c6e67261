package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/analytics"
	"github.com/jengzang/quota-backend-go/internal/models"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"github.com/jengzang/quota-backend-go/internal/repository"
	"go.uber.org/zap"
)

// DailyAggregator derives DailyAnalyticsRecords from source rows.
// Every call re-reads the source rows of the day, so concurrent or
// duplicate recomputes for the same key converge.
type DailyAggregator struct {
	records  *repository.WorkRecordRepository
	schedule *repository.ScheduleRepository
	daily    *repository.DailyAnalyticsRepository
	loc      *time.Location
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDailyAggregator creates a new daily aggregator
func NewDailyAggregator(
	records *repository.WorkRecordRepository,
	schedule *repository.ScheduleRepository,
	daily *repository.DailyAnalyticsRepository,
	loc *time.Location,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DailyAggregator {
	return &DailyAggregator{
		records:  records,
		schedule: schedule,
		daily:    daily,
		loc:      loc,
		metrics:  metrics,
		logger:   logger,
	}
}

// Compute builds the summary for (userID, day) without storing it
func (a *DailyAggregator) Compute(ctx context.Context, userID int64, day time.Time) (*models.DailyAnalyticsRecord, error) {
	start, end := analytics.DayBounds(day.In(a.loc))
	date := analytics.FormatDate(start)

	records, err := a.records.ListBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	meetings, err := a.schedule.ListMeetingsOn(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	routines, err := a.schedule.ListRoutineInstancesOn(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	summary := analytics.BuildDailySummary(userID, date, records, meetings, routines)
	return &summary, nil
}

// Recompute rebuilds and upserts the record for (userID, day)
func (a *DailyAggregator) Recompute(ctx context.Context, userID int64, day time.Time) (*models.DailyAnalyticsRecord, error) {
	started := time.Now()

	summary, err := a.Compute(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily analytics: %w", err)
	}
	summary.UpdatedAt = time.Now()

	if err := a.daily.Upsert(ctx, summary); err != nil {
		return nil, err
	}

	a.metrics.Recompute(time.Since(started))
	a.logger.Debug("daily analytics recomputed",
		zap.Int64("user_id", userID),
		zap.String("date", summary.Date),
		zap.Int64("total_work_duration", summary.TotalWorkDuration),
	)
	return summary, nil
}
