package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// CronJobLogRepository handles the append-only job audit trail
type CronJobLogRepository struct {
	db *sql.DB
}

// NewCronJobLogRepository creates a new cron job log repository
func NewCronJobLogRepository(db *sql.DB) *CronJobLogRepository {
	return &CronJobLogRepository{db: db}
}

// Create appends a log row
func (r *CronJobLogRepository) Create(ctx context.Context, log *models.CronJobLog) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO cron_job_logs (job_name, last_run_date, status, error_message)
		VALUES (?, ?, ?, ?)
	`, log.JobName, log.LastRunDate, log.Status, log.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to create cron job log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	log.ID = id
	return nil
}

// LatestCompleted returns the completed run with the most recent date
func (r *CronJobLogRepository) LatestCompleted(ctx context.Context, jobName string) (*models.CronJobLog, error) {
	var log models.CronJobLog
	err := r.db.QueryRowContext(ctx, `
		SELECT id, job_name, last_run_date, status, error_message, created_at
		FROM cron_job_logs
		WHERE job_name = ? AND status = ?
		ORDER BY last_run_date DESC, id DESC
		LIMIT 1
	`, jobName, models.CronJobStatusCompleted).Scan(
		&log.ID, &log.JobName, &log.LastRunDate, &log.Status, &log.ErrorMessage, &log.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no completed run of %s: %w", jobName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest cron job log: %w", err)
	}
	return &log, nil
}

// List returns the most recent log rows of a job
func (r *CronJobLogRepository) List(ctx context.Context, jobName string, limit int) ([]models.CronJobLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_name, last_run_date, status, error_message, created_at
		FROM cron_job_logs
		WHERE job_name = ?
		ORDER BY id DESC
		LIMIT ?
	`, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cron job logs: %w", err)
	}
	defer rows.Close()

	var logs []models.CronJobLog
	for rows.Next() {
		var l models.CronJobLog
		if err := rows.Scan(&l.ID, &l.JobName, &l.LastRunDate, &l.Status, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cron job log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
