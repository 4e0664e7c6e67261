package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/analytics"
	"github.com/jengzang/quota-backend-go/internal/models"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"github.com/jengzang/quota-backend-go/internal/repository"
	"go.uber.org/zap"
)

// RangeResult is a gap-free, date-ordered run of daily records
type RangeResult struct {
	Records []models.DailyAnalyticsRecord
	HasGaps bool
}

// BackfillService keeps daily_analytics complete: on read, on startup and
// once per night.
type BackfillService struct {
	aggregator *DailyAggregator
	daily      *repository.DailyAnalyticsRepository
	users      *repository.UserRepository
	jobLogs    *repository.CronJobLogRepository
	runner     *BackgroundRunner
	loc        *time.Location
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewBackfillService creates a new backfill service
func NewBackfillService(
	aggregator *DailyAggregator,
	daily *repository.DailyAnalyticsRepository,
	users *repository.UserRepository,
	jobLogs *repository.CronJobLogRepository,
	runner *BackgroundRunner,
	loc *time.Location,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BackfillService {
	return &BackfillService{
		aggregator: aggregator,
		daily:      daily,
		users:      users,
		jobLogs:    jobLogs,
		runner:     runner,
		loc:        loc,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// EnsureRange returns one record per day in [start, end]. Missing days are
// computed on the fly and their persistence is scheduled in the background,
// so the response never waits on a write.
func (s *BackfillService) EnsureRange(ctx context.Context, userID int64, start, end time.Time) (*RangeResult, error) {
	start = analytics.StartOfDay(start, s.loc)
	end = analytics.StartOfDay(end, s.loc)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidArgument,
			analytics.FormatDate(start), analytics.FormatDate(end))
	}

	stored, err := s.daily.ListRange(ctx, userID, analytics.FormatDate(start), analytics.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to load daily analytics: %w", err)
	}
	byDate := make(map[string]models.DailyAnalyticsRecord, len(stored))
	for _, rec := range stored {
		byDate[rec.Date] = rec
	}

	days := analytics.DateRange(start, end)
	result := &RangeResult{Records: make([]models.DailyAnalyticsRecord, 0, len(days))}

	for _, day := range days {
		date := analytics.FormatDate(day)
		if rec, ok := byDate[date]; ok {
			result.Records = append(result.Records, rec)
			continue
		}

		result.HasGaps = true
		rec, err := s.aggregator.Compute(ctx, userID, day)
		if err != nil {
			return nil, fmt.Errorf("failed to compute %s: %w", date, err)
		}
		result.Records = append(result.Records, *rec)
		s.scheduleRecompute(userID, day)
	}

	return result, nil
}

func (s *BackfillService) scheduleRecompute(userID int64, day time.Time) {
	s.runner.Go("daily_recompute", func(ctx context.Context) error {
		_, err := s.aggregator.Recompute(ctx, userID, day)
		return err
	})
}

// RecomputeRange synchronously rebuilds every day in [start, end] for one user
func (s *BackfillService) RecomputeRange(ctx context.Context, userID int64, start, end time.Time) (int, error) {
	start = analytics.StartOfDay(start, s.loc)
	end = analytics.StartOfDay(end, s.loc)
	if start.After(end) {
		return 0, fmt.Errorf("%w: start is after end", ErrInvalidArgument)
	}

	count := 0
	for _, day := range analytics.DateRange(start, end) {
		if _, err := s.aggregator.Recompute(ctx, userID, day); err != nil {
			return count, fmt.Errorf("failed to recompute %s: %w", analytics.FormatDate(day), err)
		}
		count++
	}
	return count, nil
}

// RunForDate recomputes one day for every user and records the run in
// cron_job_logs. A failure is logged as a failed row and returned.
func (s *BackfillService) RunForDate(ctx context.Context, day time.Time) error {
	day = analytics.StartOfDay(day, s.loc)
	date := analytics.FormatDate(day)

	runErr := s.recomputeAllUsers(ctx, day)

	entry := &models.CronJobLog{
		JobName:     models.JobDailyAnalytics,
		LastRunDate: date,
		Status:      models.CronJobStatusCompleted,
	}
	if runErr != nil {
		entry.Status = models.CronJobStatusFailed
		entry.ErrorMessage = runErr.Error()
	}
	if err := s.jobLogs.Create(ctx, entry); err != nil {
		if runErr != nil {
			return errors.Join(runErr, err)
		}
		return err
	}
	return runErr
}

func (s *BackfillService) recomputeAllUsers(ctx context.Context, day time.Time) error {
	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, userID := range userIDs {
		if _, err := s.aggregator.Recompute(ctx, userID, day); err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}
	}
	return nil
}

// OnServerStart replays every day missed since the last completed run, up to
// yesterday. Without a previous run there is no baseline and nothing happens.
func (s *BackfillService) OnServerStart(ctx context.Context) error {
	last, err := s.lastCompleted(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Info("no completed daily analytics run found, skipping catch-up")
		return nil
	}
	if err != nil {
		return err
	}
	return s.catchUpFrom(ctx, last)
}

// RunNightly is the scheduled pass. It replays from the last completed run
// through yesterday, so a failed or skipped day is retried before later days
// are marked complete. The first ever run only covers yesterday.
func (s *BackfillService) RunNightly(ctx context.Context) error {
	last, err := s.lastCompleted(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		yesterday := analytics.StartOfDay(s.now(), s.loc).AddDate(0, 0, -1)
		return s.RunForDate(ctx, yesterday)
	}
	if err != nil {
		return err
	}
	return s.catchUpFrom(ctx, last)
}

func (s *BackfillService) lastCompleted(ctx context.Context) (time.Time, error) {
	last, err := s.jobLogs.LatestCompleted(ctx, models.JobDailyAnalytics)
	if errors.Is(err, repository.ErrNotFound) {
		return time.Time{}, err
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load last job run: %w", err)
	}
	day, err := analytics.ParseDate(last.LastRunDate, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last run date %q: %w", last.LastRunDate, err)
	}
	return day, nil
}

// catchUpFrom runs every day after lastDay up to yesterday and stops at the
// first failure, leaving the failed day as the next starting point.
func (s *BackfillService) catchUpFrom(ctx context.Context, lastDay time.Time) error {
	yesterday := analytics.StartOfDay(s.now(), s.loc).AddDate(0, 0, -1)
	first := lastDay.AddDate(0, 0, 1)
	if first.After(yesterday) {
		s.logger.Info("daily analytics up to date", zap.String("last_run_date", analytics.FormatDate(lastDay)))
		return nil
	}

	days := analytics.DateRange(first, yesterday)
	s.logger.Info("catching up daily analytics",
		zap.String("from", analytics.FormatDate(first)),
		zap.String("to", analytics.FormatDate(yesterday)),
		zap.Int("days", len(days)),
	)

	for _, day := range days {
		if err := s.RunForDate(ctx, day); err != nil {
			return fmt.Errorf("catch-up aborted at %s: %w", analytics.FormatDate(day), err)
		}
		s.metrics.CatchUpDay()
	}
	return nil
}
