package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// WorkRecordRepository handles database operations for work records
type WorkRecordRepository struct {
	db *sql.DB
}

// NewWorkRecordRepository creates a new work record repository
func NewWorkRecordRepository(db *sql.DB) *WorkRecordRepository {
	return &WorkRecordRepository{db: db}
}

const workRecordColumns = `id, user_id, resource_group_id, title, duration_seconds, completed_at, created_at, updated_at`

// Create inserts a work record
func (r *WorkRecordRepository) Create(ctx context.Context, userID int64, in models.WorkRecordInput) (*models.WorkRecord, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO work_records (user_id, resource_group_id, title, duration_seconds, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`, userID, nullableInt64(in.ResourceGroupID), in.Title, in.DurationSeconds, in.CompletedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create work record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return r.GetByID(ctx, userID, id)
}

// Update overwrites the writable fields of a work record
func (r *WorkRecordRepository) Update(ctx context.Context, userID, id int64, in models.WorkRecordInput) (*models.WorkRecord, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE work_records
		SET resource_group_id = ?,
		    title = ?,
		    duration_seconds = ?,
		    completed_at = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`, nullableInt64(in.ResourceGroupID), in.Title, in.DurationSeconds, in.CompletedAt.Unix(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update work record: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("work record %d: %w", id, ErrNotFound)
	}
	return r.GetByID(ctx, userID, id)
}

// Delete removes a work record
func (r *WorkRecordRepository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM work_records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete work record: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("work record %d: %w", id, ErrNotFound)
	}
	return nil
}

// GetByID retrieves a work record owned by the user
func (r *WorkRecordRepository) GetByID(ctx context.Context, userID, id int64) (*models.WorkRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+workRecordColumns+` FROM work_records WHERE id = ? AND user_id = ?`, id, userID)

	record, err := scanWorkRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("work record %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work record: %w", err)
	}
	return record, nil
}

// ListBetween returns the user's records completed in [from, to)
func (r *WorkRecordRepository) ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.WorkRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+workRecordColumns+`
		FROM work_records
		WHERE user_id = ? AND completed_at >= ? AND completed_at < ?
		ORDER BY completed_at, id
	`, userID, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query work records: %w", err)
	}
	defer rows.Close()

	var records []models.WorkRecord
	for rows.Next() {
		record, err := scanWorkRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkRecord(s rowScanner) (*models.WorkRecord, error) {
	var rec models.WorkRecord
	var groupID sql.NullInt64
	var completedAt int64

	err := s.Scan(&rec.ID, &rec.UserID, &groupID, &rec.Title, &rec.DurationSeconds,
		&completedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.ResourceGroupID = int64Ptr(groupID)
	rec.CompletedAt = time.Unix(completedAt, 0).UTC()
	return &rec, nil
}
