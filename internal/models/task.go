package models

import "time"

// TargetType constants
const (
	TargetTypeSimple  = "simple"
	TargetTypeRoutine = "routine"
)

// TaskLike is the common shape of simple and routine tasks for scoring
type TaskLike struct {
	TargetType      string `json:"target_type"`
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	ResourceGroupID *int64 `json:"resource_group_id,omitempty"`
	Title           string `json:"title"`
	IsActive        bool   `json:"is_active"`
}

// TaskPriority is a derived ranking row, regenerated on every refresh
type TaskPriority struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	TargetType    string    `json:"target_type" db:"target_type"`
	TargetID      int64     `json:"target_id" db:"target_id"`
	PriorityScore int64     `json:"priority_score" db:"priority_score"`
	CalculatedAt  time.Time `json:"calculated_at" db:"calculated_at"`
}

// TaskWithScore is a task joined with its current priority score
type TaskWithScore struct {
	TaskLike
	PriorityScore int64     `json:"priority_score"`
	CalculatedAt  time.Time `json:"calculated_at"`
}
