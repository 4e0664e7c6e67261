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

// PriorityService scores active tasks against the user's quota state
type PriorityService struct {
	quota      *QuotaService
	tasks      *repository.TaskRepository
	priorities *repository.PriorityRepository
	logger     *zap.Logger
}

// NewPriorityService creates a new priority service
func NewPriorityService(
	quota *QuotaService,
	tasks *repository.TaskRepository,
	priorities *repository.PriorityRepository,
	logger *zap.Logger,
) *PriorityService {
	return &PriorityService{quota: quota, tasks: tasks, priorities: priorities, logger: logger}
}

// RefreshAll recomputes and replaces every priority row of the user
func (s *PriorityService) RefreshAll(ctx context.Context, userID int64) error {
	stats, err := s.quota.Stats(ctx, userID)
	if err != nil {
		return err
	}

	tasks, err := s.tasks.ListActive(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load active tasks: %w", err)
	}

	now := time.Now()
	priorities := make([]models.TaskPriority, 0, len(tasks))
	for _, task := range tasks {
		priorities = append(priorities, models.TaskPriority{
			UserID:        userID,
			TargetType:    task.TargetType,
			TargetID:      task.ID,
			PriorityScore: analytics.ScoreTask(task.ResourceGroupID, stats),
			CalculatedAt:  now,
		})
	}

	if err := s.priorities.ReplaceForUser(ctx, userID, priorities); err != nil {
		return err
	}

	s.logger.Debug("priorities refreshed", zap.Int64("user_id", userID), zap.Int("tasks", len(priorities)))
	return nil
}

// GetSortedAllTasks returns scored tasks, highest priority first
func (s *PriorityService) GetSortedAllTasks(ctx context.Context, userID int64) ([]models.TaskWithScore, error) {
	return s.priorities.ListSortedTasks(ctx, userID)
}
