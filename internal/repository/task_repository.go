package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// TaskRepository handles database operations for simple and routine tasks
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateSimple inserts a simple task
func (r *TaskRepository) CreateSimple(ctx context.Context, task *models.TaskLike) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO simple_tasks (user_id, resource_group_id, title, is_active) VALUES (?, ?, ?, ?)
	`, task.UserID, nullableInt64(task.ResourceGroupID), task.Title, boolToInt(task.IsActive))
	if err != nil {
		return fmt.Errorf("failed to create simple task: %w", err)
	}
	task.TargetType = models.TargetTypeSimple
	task.ID, err = result.LastInsertId()
	return err
}

// CreateRoutine inserts a routine task
func (r *TaskRepository) CreateRoutine(ctx context.Context, task *models.TaskLike, recurrenceRule string) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO routine_tasks (user_id, resource_group_id, title, recurrence_rule, is_active) VALUES (?, ?, ?, ?, ?)
	`, task.UserID, nullableInt64(task.ResourceGroupID), task.Title, recurrenceRule, boolToInt(task.IsActive))
	if err != nil {
		return fmt.Errorf("failed to create routine task: %w", err)
	}
	task.TargetType = models.TargetTypeRoutine
	task.ID, err = result.LastInsertId()
	return err
}

// SetActive activates or deactivates a task
func (r *TaskRepository) SetActive(ctx context.Context, userID int64, targetType string, id int64, active bool) error {
	var table string
	switch targetType {
	case models.TargetTypeSimple:
		table = "simple_tasks"
	case models.TargetTypeRoutine:
		table = "routine_tasks"
	default:
		return fmt.Errorf("invalid target type: %s", targetType)
	}

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET is_active = ? WHERE id = ? AND user_id = ?`, table),
		boolToInt(active), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update %s task: %w", targetType, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s task %d: %w", targetType, id, ErrNotFound)
	}
	return nil
}

// ListActive returns every active simple and routine task of the user
func (r *TaskRepository) ListActive(ctx context.Context, userID int64) ([]models.TaskLike, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT 'simple' AS target_type, id, user_id, resource_group_id, title
		FROM simple_tasks
		WHERE user_id = ? AND is_active = 1
		UNION ALL
		SELECT 'routine' AS target_type, id, user_id, resource_group_id, title
		FROM routine_tasks
		WHERE user_id = ? AND is_active = 1
		ORDER BY target_type, id
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.TaskLike
	for rows.Next() {
		t := models.TaskLike{IsActive: true}
		var groupID sql.NullInt64
		if err := rows.Scan(&t.TargetType, &t.ID, &t.UserID, &groupID, &t.Title); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.ResourceGroupID = int64Ptr(groupID)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
