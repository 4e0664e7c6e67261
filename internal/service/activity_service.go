package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/analytics"
	"github.com/jengzang/quota-backend-go/internal/models"
	"github.com/jengzang/quota-backend-go/internal/repository"
	"go.uber.org/zap"
)

// ActivityService applies source-data mutations and schedules the derived
// data to catch up. Callers get their response before recomputation runs.
type ActivityService struct {
	records    *repository.WorkRecordRepository
	schedule   *repository.ScheduleRepository
	groups     *repository.ResourceGroupRepository
	tasks      *repository.TaskRepository
	aggregator *DailyAggregator
	priorities *PriorityService
	runner     *BackgroundRunner
	loc        *time.Location
	logger     *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(
	records *repository.WorkRecordRepository,
	schedule *repository.ScheduleRepository,
	groups *repository.ResourceGroupRepository,
	tasks *repository.TaskRepository,
	aggregator *DailyAggregator,
	priorities *PriorityService,
	runner *BackgroundRunner,
	loc *time.Location,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		records:    records,
		schedule:   schedule,
		groups:     groups,
		tasks:      tasks,
		aggregator: aggregator,
		priorities: priorities,
		runner:     runner,
		loc:        loc,
		logger:     logger,
	}
}

// CreateWorkRecord stores a work record
func (s *ActivityService) CreateWorkRecord(ctx context.Context, userID int64, in models.WorkRecordInput) (*models.WorkRecord, error) {
	if err := s.validateInput(ctx, userID, in); err != nil {
		return nil, err
	}

	rec, err := s.records.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	s.afterWorkChange(userID, rec.CompletedAt)
	return rec, nil
}

// UpdateWorkRecord rewrites a work record. Both the old and the new day
// are recomputed when the record moves.
func (s *ActivityService) UpdateWorkRecord(ctx context.Context, userID, id int64, in models.WorkRecordInput) (*models.WorkRecord, error) {
	if err := s.validateInput(ctx, userID, in); err != nil {
		return nil, err
	}

	old, err := s.records.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.records.Update(ctx, userID, id, in)
	if err != nil {
		return nil, err
	}

	s.afterWorkChange(userID, old.CompletedAt, rec.CompletedAt)
	return rec, nil
}

// DeleteWorkRecord removes a work record
func (s *ActivityService) DeleteWorkRecord(ctx context.Context, userID, id int64) error {
	old, err := s.records.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.records.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.afterWorkChange(userID, old.CompletedAt)
	return nil
}

// CompleteMeeting marks a meeting instance completed
func (s *ActivityService) CompleteMeeting(ctx context.Context, userID, id int64) error {
	date, err := s.schedule.CompleteMeeting(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.recomputeScheduledDate(userID, date)
}

// SetRoutineStatus updates a routine instance status
func (s *ActivityService) SetRoutineStatus(ctx context.Context, userID, id int64, status string) error {
	if !models.ValidRoutineStatus(status) {
		return fmt.Errorf("%w: unknown routine status %q", ErrInvalidArgument, status)
	}

	date, err := s.schedule.UpdateRoutineInstanceStatus(ctx, userID, id, status)
	if err != nil {
		return err
	}
	return s.recomputeScheduledDate(userID, date)
}

// SetTaskActive activates or deactivates a task and refreshes the ranking
func (s *ActivityService) SetTaskActive(ctx context.Context, userID int64, targetType string, id int64, active bool) error {
	if targetType != models.TargetTypeSimple && targetType != models.TargetTypeRoutine {
		return fmt.Errorf("%w: unknown task type %q", ErrInvalidArgument, targetType)
	}
	if err := s.tasks.SetActive(ctx, userID, targetType, id, active); err != nil {
		return err
	}

	s.scheduleRefresh(userID)
	return nil
}

func (s *ActivityService) validateInput(ctx context.Context, userID int64, in models.WorkRecordInput) error {
	if in.DurationSeconds <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidArgument)
	}
	if in.CompletedAt.IsZero() {
		return fmt.Errorf("%w: completed_at is required", ErrInvalidArgument)
	}
	if in.ResourceGroupID == nil {
		return nil
	}
	if _, err := s.groups.GetByID(ctx, userID, *in.ResourceGroupID); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: unknown resource group %d", ErrInvalidArgument, *in.ResourceGroupID)
		}
		return err
	}
	return nil
}

func (s *ActivityService) recomputeScheduledDate(userID int64, date string) error {
	day, err := analytics.ParseDate(date, s.loc)
	if err != nil {
		return err
	}
	s.scheduleRecompute(userID, day)
	return nil
}

// afterWorkChange recomputes each touched day once, then the ranking
func (s *ActivityService) afterWorkChange(userID int64, touched ...time.Time) {
	seen := make(map[string]bool, len(touched))
	for _, t := range touched {
		day := analytics.StartOfDay(t, s.loc)
		date := analytics.FormatDate(day)
		if seen[date] {
			continue
		}
		seen[date] = true
		s.scheduleRecompute(userID, day)
	}
	s.scheduleRefresh(userID)
}

func (s *ActivityService) scheduleRecompute(userID int64, day time.Time) {
	s.runner.Go("daily_recompute", func(ctx context.Context) error {
		_, err := s.aggregator.Recompute(ctx, userID, day)
		return err
	})
}

func (s *ActivityService) scheduleRefresh(userID int64) {
	s.runner.Go("priority_refresh", func(ctx context.Context) error {
		return s.priorities.RefreshAll(ctx, userID)
	})
}
