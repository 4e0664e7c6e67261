package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/database"
	"github.com/jengzang/quota-backend-go/internal/models"
)

// PriorityRepository handles database operations for task priorities
type PriorityRepository struct {
	db *sql.DB
}

// NewPriorityRepository creates a new priority repository
func NewPriorityRepository(db *sql.DB) *PriorityRepository {
	return &PriorityRepository{db: db}
}

// ReplaceForUser deletes every priority row of the user and inserts the
// given set in one transaction, so readers never observe an empty set.
func (r *PriorityRepository) ReplaceForUser(ctx context.Context, userID int64, priorities []models.TaskPriority) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_priorities WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete task priorities: %w", err)
		}

		if len(priorities) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO task_priorities (user_id, target_type, target_id, priority_score, calculated_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare task priority insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range priorities {
			if _, err := stmt.ExecContext(ctx, userID, p.TargetType, p.TargetID, p.PriorityScore, p.CalculatedAt.UnixMilli()); err != nil {
				return fmt.Errorf("failed to insert priority for %s task %d: %w", p.TargetType, p.TargetID, err)
			}
		}
		return nil
	})
}

// ListByUser returns the raw priority rows of the user
func (r *PriorityRepository) ListByUser(ctx context.Context, userID int64) ([]models.TaskPriority, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, target_type, target_id, priority_score, calculated_at
		FROM task_priorities
		WHERE user_id = ?
		ORDER BY priority_score DESC, target_type, target_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task priorities: %w", err)
	}
	defer rows.Close()

	var out []models.TaskPriority
	for rows.Next() {
		var p models.TaskPriority
		var calculatedAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.TargetType, &p.TargetID, &p.PriorityScore, &calculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task priority: %w", err)
		}
		p.CalculatedAt = time.UnixMilli(calculatedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListSortedTasks joins priority rows with their tasks, highest score
// first. Equal scores are ordered by target type, then task id.
func (r *PriorityRepository) ListSortedTasks(ctx context.Context, userID int64) ([]models.TaskWithScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.target_type, t.id, t.user_id, t.resource_group_id, t.title, t.is_active,
		       p.priority_score, p.calculated_at
		FROM task_priorities p
		JOIN (
			SELECT 'simple' AS target_type, id, user_id, resource_group_id, title, is_active FROM simple_tasks
			UNION ALL
			SELECT 'routine' AS target_type, id, user_id, resource_group_id, title, is_active FROM routine_tasks
		) t ON t.target_type = p.target_type AND t.id = p.target_id AND t.user_id = p.user_id
		WHERE p.user_id = ?
		ORDER BY p.priority_score DESC, p.target_type, p.target_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sorted tasks: %w", err)
	}
	defer rows.Close()

	var out []models.TaskWithScore
	for rows.Next() {
		var ts models.TaskWithScore
		var groupID sql.NullInt64
		var active int
		var calculatedAt int64
		if err := rows.Scan(&ts.TargetType, &ts.ID, &ts.UserID, &groupID, &ts.Title, &active,
			&ts.PriorityScore, &calculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sorted task: %w", err)
		}
		ts.ResourceGroupID = int64Ptr(groupID)
		ts.IsActive = active != 0
		ts.CalculatedAt = time.UnixMilli(calculatedAt)
		out = append(out, ts)
	}
	return out, rows.Err()
}
