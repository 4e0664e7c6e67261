package models

import "time"

// CronJobLog is an append-only audit row for daily recomputation runs
type CronJobLog struct {
	ID           int64     `json:"id" db:"id"`
	JobName      string    `json:"job_name" db:"job_name"`
	LastRunDate  string    `json:"last_run_date" db:"last_run_date"` // YYYY-MM-DD
	Status       string    `json:"status" db:"status"`               // completed, failed
	ErrorMessage string    `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Job names
const (
	JobDailyAnalytics = "daily_analytics"
)

// CronJobStatus constants
const (
	CronJobStatusCompleted = "completed"
	CronJobStatusFailed    = "failed"
)
