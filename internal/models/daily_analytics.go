package models

import "time"

// UnassignedResourceKey is the bucket for work without a resource group.
// Real groups are keyed by their decimal id, so it cannot collide.
const UnassignedResourceKey = "null"

// DateLayout is the calendar-day format used in storage and the API
const DateLayout = "2006-01-02"

// DailyAnalyticsRecord is the per-user, per-day pre-aggregation.
// It is always recomputed from source rows and never edited by hand.
type DailyAnalyticsRecord struct {
	ID     int64  `json:"id,omitempty" db:"id"`
	UserID int64  `json:"user_id" db:"user_id"`
	Date   string `json:"date" db:"date"` // YYYY-MM-DD

	WorkDurationByResource map[string]int64 `json:"work_duration_by_resource" db:"work_duration_by_resource"`
	TotalWorkDuration      int64            `json:"total_work_duration" db:"total_work_duration"`

	MeetingCount         int   `json:"meeting_count" db:"meeting_count"`
	TotalMeetingDuration int64 `json:"total_meeting_duration" db:"total_meeting_duration"`

	RoutineCompleted int `json:"routine_completed" db:"routine_completed"`
	RoutineTotal     int `json:"routine_total" db:"routine_total"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
