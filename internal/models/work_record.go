package models

import "time"

// WorkRecord is one completed block of focused work
type WorkRecord struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	ResourceGroupID *int64    `json:"resource_group_id,omitempty" db:"resource_group_id"`
	Title           string    `json:"title" db:"title"`
	DurationSeconds int64     `json:"duration_seconds" db:"duration_seconds"`
	CompletedAt     time.Time `json:"completed_at" db:"completed_at"` // stored as unix seconds

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WorkRecordInput is the writable part of a work record
type WorkRecordInput struct {
	ResourceGroupID *int64    `json:"resource_group_id"`
	Title           string    `json:"title"`
	DurationSeconds int64     `json:"duration_seconds" binding:"required,gt=0"`
	CompletedAt     time.Time `json:"completed_at" binding:"required"`
}

// MeetingInstance is one occurrence of a meeting on a calendar day
type MeetingInstance struct {
	ID              int64  `json:"id" db:"id"`
	UserID          int64  `json:"user_id" db:"user_id"`
	Title           string `json:"title" db:"title"`
	ScheduledDate   string `json:"scheduled_date" db:"scheduled_date"` // YYYY-MM-DD
	DurationSeconds int64  `json:"duration_seconds" db:"duration_seconds"`
	IsCompleted     bool   `json:"is_completed" db:"is_completed"`
}

// RoutineInstance is one scheduled occurrence of a routine task
type RoutineInstance struct {
	ID            int64  `json:"id" db:"id"`
	RoutineTaskID int64  `json:"routine_task_id" db:"routine_task_id"`
	UserID        int64  `json:"user_id" db:"user_id"`
	ScheduledDate string `json:"scheduled_date" db:"scheduled_date"` // YYYY-MM-DD
	Status        string `json:"status" db:"status"`
}

// RoutineInstance status constants
const (
	RoutineStatusCompleted = "completed"
	RoutineStatusSkipped   = "skipped"
	RoutineStatusPending   = "pending"
)

// ValidRoutineStatus reports whether s is a known routine instance status
func ValidRoutineStatus(s string) bool {
	switch s {
	case RoutineStatusCompleted, RoutineStatusSkipped, RoutineStatusPending:
		return true
	}
	return false
}
