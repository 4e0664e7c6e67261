package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// DailyAnalyticsRepository handles database operations for daily analytics
type DailyAnalyticsRepository struct {
	db *sql.DB
}

// NewDailyAnalyticsRepository creates a new daily analytics repository
func NewDailyAnalyticsRepository(db *sql.DB) *DailyAnalyticsRepository {
	return &DailyAnalyticsRepository{db: db}
}

// Upsert writes the record for (user_id, date), replacing any existing row.
// encoding/json sorts map keys, so identical inputs store identical text.
func (r *DailyAnalyticsRepository) Upsert(ctx context.Context, rec *models.DailyAnalyticsRecord) error {
	byResource, err := json.Marshal(rec.WorkDurationByResource)
	if err != nil {
		return fmt.Errorf("failed to encode work duration by resource: %w", err)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO daily_analytics (
			user_id, date, work_duration_by_resource, total_work_duration,
			meeting_count, total_meeting_duration, routine_completed, routine_total, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			work_duration_by_resource = excluded.work_duration_by_resource,
			total_work_duration = excluded.total_work_duration,
			meeting_count = excluded.meeting_count,
			total_meeting_duration = excluded.total_meeting_duration,
			routine_completed = excluded.routine_completed,
			routine_total = excluded.routine_total,
			updated_at = excluded.updated_at
	`,
		rec.UserID, rec.Date, string(byResource), rec.TotalWorkDuration,
		rec.MeetingCount, rec.TotalMeetingDuration, rec.RoutineCompleted, rec.RoutineTotal,
		rec.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily analytics %s: %w", rec.Date, err)
	}
	return nil
}

// Get retrieves the record for one day
func (r *DailyAnalyticsRepository) Get(ctx context.Context, userID int64, date string) (*models.DailyAnalyticsRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+dailyAnalyticsColumns+`
		FROM daily_analytics
		WHERE user_id = ? AND date = ?
	`, userID, date)

	rec, err := scanDailyAnalytics(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("daily analytics %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily analytics: %w", err)
	}
	return rec, nil
}

// ListRange returns the persisted records with start <= date <= end, date ordered
func (r *DailyAnalyticsRepository) ListRange(ctx context.Context, userID int64, start, end string) ([]models.DailyAnalyticsRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+dailyAnalyticsColumns+`
		FROM daily_analytics
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily analytics: %w", err)
	}
	defer rows.Close()

	var records []models.DailyAnalyticsRecord
	for rows.Next() {
		rec, err := scanDailyAnalytics(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily analytics: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

const dailyAnalyticsColumns = `id, user_id, date, work_duration_by_resource, total_work_duration,
	meeting_count, total_meeting_duration, routine_completed, routine_total, updated_at`

func scanDailyAnalytics(s rowScanner) (*models.DailyAnalyticsRecord, error) {
	var rec models.DailyAnalyticsRecord
	var byResource string
	var updatedAt int64

	err := s.Scan(&rec.ID, &rec.UserID, &rec.Date, &byResource, &rec.TotalWorkDuration,
		&rec.MeetingCount, &rec.TotalMeetingDuration, &rec.RoutineCompleted, &rec.RoutineTotal, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.WorkDurationByResource = make(map[string]int64)
	if err := json.Unmarshal([]byte(byResource), &rec.WorkDurationByResource); err != nil {
		return nil, fmt.Errorf("invalid work_duration_by_resource for %s: %w", rec.Date, err)
	}
	rec.UpdatedAt = time.UnixMilli(updatedAt)
	return &rec, nil
}
