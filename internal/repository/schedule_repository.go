package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// ScheduleRepository reads meeting and routine occurrences. The rows are
// materialised by the scheduling subsystem; this side only reads them and
// flips completion state.
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// CreateMeeting inserts a meeting instance
func (r *ScheduleRepository) CreateMeeting(ctx context.Context, m *models.MeetingInstance) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO meeting_instances (user_id, title, scheduled_date, duration_seconds, is_completed)
		VALUES (?, ?, ?, ?, ?)
	`, m.UserID, m.Title, m.ScheduledDate, m.DurationSeconds, boolToInt(m.IsCompleted))
	if err != nil {
		return fmt.Errorf("failed to create meeting instance: %w", err)
	}
	m.ID, err = result.LastInsertId()
	return err
}

// ListMeetingsOn returns every meeting instance scheduled on date
func (r *ScheduleRepository) ListMeetingsOn(ctx context.Context, userID int64, date string) ([]models.MeetingInstance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, scheduled_date, duration_seconds, is_completed
		FROM meeting_instances
		WHERE user_id = ? AND scheduled_date = ?
		ORDER BY id
	`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query meeting instances: %w", err)
	}
	defer rows.Close()

	var meetings []models.MeetingInstance
	for rows.Next() {
		var m models.MeetingInstance
		var completed int
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.ScheduledDate, &m.DurationSeconds, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan meeting instance: %w", err)
		}
		m.IsCompleted = completed != 0
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// CompleteMeeting marks a meeting done and returns its scheduled date
func (r *ScheduleRepository) CompleteMeeting(ctx context.Context, userID, id int64) (string, error) {
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT scheduled_date FROM meeting_instances WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&date)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("meeting instance %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meeting instance: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE meeting_instances SET is_completed = 1 WHERE id = ? AND user_id = ?`, id, userID,
	); err != nil {
		return "", fmt.Errorf("failed to complete meeting instance: %w", err)
	}
	return date, nil
}

// CreateRoutineInstance inserts a routine occurrence
func (r *ScheduleRepository) CreateRoutineInstance(ctx context.Context, ri *models.RoutineInstance) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO routine_task_instances (routine_task_id, user_id, scheduled_date, status)
		VALUES (?, ?, ?, ?)
	`, ri.RoutineTaskID, ri.UserID, ri.ScheduledDate, ri.Status)
	if err != nil {
		return fmt.Errorf("failed to create routine instance: %w", err)
	}
	ri.ID, err = result.LastInsertId()
	return err
}

// ListRoutineInstancesOn returns every routine instance scheduled on date
func (r *ScheduleRepository) ListRoutineInstancesOn(ctx context.Context, userID int64, date string) ([]models.RoutineInstance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, routine_task_id, user_id, scheduled_date, status
		FROM routine_task_instances
		WHERE user_id = ? AND scheduled_date = ?
		ORDER BY id
	`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query routine instances: %w", err)
	}
	defer rows.Close()

	var instances []models.RoutineInstance
	for rows.Next() {
		var ri models.RoutineInstance
		if err := rows.Scan(&ri.ID, &ri.RoutineTaskID, &ri.UserID, &ri.ScheduledDate, &ri.Status); err != nil {
			return nil, fmt.Errorf("failed to scan routine instance: %w", err)
		}
		instances = append(instances, ri)
	}
	return instances, rows.Err()
}

// UpdateRoutineInstanceStatus sets the status and returns the scheduled date
func (r *ScheduleRepository) UpdateRoutineInstanceStatus(ctx context.Context, userID, id int64, status string) (string, error) {
	var date string
	err := r.db.QueryRowContext(ctx,
		`SELECT scheduled_date FROM routine_task_instances WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&date)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("routine instance %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get routine instance: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE routine_task_instances SET status = ? WHERE id = ? AND user_id = ?`, status, id, userID,
	); err != nil {
		return "", fmt.Errorf("failed to update routine instance: %w", err)
	}
	return date, nil
}
