package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jengzang/quota-backend-go/internal/database"
	"github.com/jengzang/quota-backend-go/internal/models"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: database.MemoryPath}, zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	id, err := NewUserRepository(db).Create(context.Background(), "tester")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func createGroup(t *testing.T, db *sql.DB, userID int64, name string, limit *float64) int64 {
	t.Helper()
	g := &models.ResourceGroup{UserID: userID, Name: name, PercentageLimit: limit}
	if err := NewResourceGroupRepository(db).Create(context.Background(), g); err != nil {
		t.Fatalf("create group: %v", err)
	}
	return g.ID
}

// ============================================================
// Work records
// ============================================================

func TestWorkRecordLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	groupID := createGroup(t, db, userID, "Work", nil)
	repo := NewWorkRecordRepository(db)

	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	rec, err := repo.Create(ctx, userID, models.WorkRecordInput{
		ResourceGroupID: &groupID, Title: "focus", DurationSeconds: 1500, CompletedAt: at,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ResourceGroupID == nil || *rec.ResourceGroupID != groupID || !rec.CompletedAt.Equal(at) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	updated, err := repo.Update(ctx, userID, rec.ID, models.WorkRecordInput{DurationSeconds: 60, CompletedAt: at})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ResourceGroupID != nil || updated.DurationSeconds != 60 {
		t.Fatalf("unexpected update: %+v", updated)
	}

	if err := repo.Delete(ctx, userID, rec.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, userID, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, userID, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestWorkRecordRejectsNonPositiveDuration(t *testing.T) {
	db := newTestDB(t)
	userID := createUser(t, db)

	_, err := NewWorkRecordRepository(db).Create(context.Background(), userID, models.WorkRecordInput{
		DurationSeconds: 0, CompletedAt: time.Now(),
	})
	if err == nil {
		t.Fatal("expected check constraint violation")
	}
}

func TestWorkRecordListBetweenIsHalfOpen(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	repo := NewWorkRecordRepository(db)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	for _, at := range []time.Time{start.Add(-time.Second), start, end.Add(-time.Second), end} {
		if _, err := repo.Create(ctx, userID, models.WorkRecordInput{DurationSeconds: 10, CompletedAt: at}); err != nil {
			t.Fatal(err)
		}
	}

	records, err := repo.ListBetween(ctx, userID, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in [start, end), got %d", len(records))
	}
}

// ============================================================
// Daily analytics
// ============================================================

func TestDailyAnalyticsUpsertReplaces(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	repo := NewDailyAnalyticsRepository(db)

	first := &models.DailyAnalyticsRecord{
		UserID: userID, Date: "2026-05-01",
		WorkDurationByResource: map[string]int64{"1": 100, models.UnassignedResourceKey: 20},
		TotalWorkDuration:      120,
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := &models.DailyAnalyticsRecord{
		UserID: userID, Date: "2026-05-01",
		WorkDurationByResource: map[string]int64{"2": 50},
		TotalWorkDuration:      50,
		MeetingCount:           1,
		RoutineTotal:           2,
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatal(err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM daily_analytics WHERE user_id = ?`, userID).Scan(&count)
	if count != 1 {
		t.Fatalf("expected one row per (user, date), got %d", count)
	}

	got, err := repo.Get(ctx, userID, "2026-05-01")
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalWorkDuration != 50 || got.WorkDurationByResource["2"] != 50 || len(got.WorkDurationByResource) != 1 {
		t.Fatalf("unexpected record after upsert: %+v", got)
	}
	if got.MeetingCount != 1 || got.RoutineTotal != 2 {
		t.Fatalf("unexpected counters: %+v", got)
	}
}

func TestDailyAnalyticsListRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	repo := NewDailyAnalyticsRepository(db)

	for _, d := range []string{"2026-05-03", "2026-05-01", "2026-05-05"} {
		rec := &models.DailyAnalyticsRecord{UserID: userID, Date: d, WorkDurationByResource: map[string]int64{}}
		if err := repo.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := repo.ListRange(ctx, userID, "2026-05-01", "2026-05-04")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].Date != "2026-05-01" || records[1].Date != "2026-05-03" {
		t.Fatalf("unexpected range: %+v", records)
	}
}

// ============================================================
// Tasks and priorities
// ============================================================

func TestListActiveSkipsInactive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	repo := NewTaskRepository(db)

	active := &models.TaskLike{UserID: userID, Title: "a", IsActive: true}
	inactive := &models.TaskLike{UserID: userID, Title: "b", IsActive: false}
	routine := &models.TaskLike{UserID: userID, Title: "r", IsActive: true}
	if err := repo.CreateSimple(ctx, active); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateSimple(ctx, inactive); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateRoutine(ctx, routine, "FREQ=DAILY"); err != nil {
		t.Fatal(err)
	}

	tasks, err := repo.ListActive(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 active tasks, got %+v", tasks)
	}

	if err := repo.SetActive(ctx, userID, models.TargetTypeRoutine, routine.ID, false); err != nil {
		t.Fatal(err)
	}
	tasks, _ = repo.ListActive(ctx, userID)
	if len(tasks) != 1 || tasks[0].ID != active.ID {
		t.Fatalf("expected only the simple task, got %+v", tasks)
	}

	if err := repo.SetActive(ctx, userID, "epic", 1, false); err == nil {
		t.Fatal("expected error for invalid target type")
	}
}

func TestReplaceForUserAndSortedTasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := createUser(t, db)
	otherID := createUser(t, db)
	tasks := NewTaskRepository(db)
	repo := NewPriorityRepository(db)

	var ids []int64
	for _, title := range []string{"low", "high", "tie"} {
		task := &models.TaskLike{UserID: userID, Title: title, IsActive: true}
		if err := tasks.CreateSimple(ctx, task); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, task.ID)
	}
	routine := &models.TaskLike{UserID: userID, Title: "routine-tie", IsActive: true}
	if err := tasks.CreateRoutine(ctx, routine, ""); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	if err := repo.ReplaceForUser(ctx, otherID, []models.TaskPriority{
		{TargetType: models.TargetTypeSimple, TargetID: 999, PriorityScore: 1, CalculatedAt: now},
	}); err != nil {
		t.Fatal(err)
	}

	if err := repo.ReplaceForUser(ctx, userID, []models.TaskPriority{
		{TargetType: models.TargetTypeSimple, TargetID: ids[0], PriorityScore: -5, CalculatedAt: now},
		{TargetType: models.TargetTypeSimple, TargetID: ids[1], PriorityScore: 100, CalculatedAt: now},
		{TargetType: models.TargetTypeSimple, TargetID: ids[2], PriorityScore: 10, CalculatedAt: now},
		{TargetType: models.TargetTypeRoutine, TargetID: routine.ID, PriorityScore: 10, CalculatedAt: now},
	}); err != nil {
		t.Fatal(err)
	}

	sorted, err := repo.ListSortedTasks(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"high", "routine-tie", "tie", "low"}
	if len(sorted) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(sorted))
	}
	for i, title := range want {
		if sorted[i].Title != title {
			t.Fatalf("position %d: expected %s, got %s", i, title, sorted[i].Title)
		}
	}

	if err := repo.ReplaceForUser(ctx, userID, nil); err != nil {
		t.Fatal(err)
	}
	rows, _ := repo.ListByUser(ctx, userID)
	if len(rows) != 0 {
		t.Fatalf("expected no rows after empty replace, got %d", len(rows))
	}
	others, _ := repo.ListByUser(ctx, otherID)
	if len(others) != 1 {
		t.Fatalf("replace must not touch other users, got %d rows", len(others))
	}
}

// ============================================================
// Cron job logs
// ============================================================

func TestLatestCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCronJobLogRepository(db)

	if _, err := repo.LatestCompleted(ctx, models.JobDailyAnalytics); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty log, got %v", err)
	}

	entries := []models.CronJobLog{
		{JobName: models.JobDailyAnalytics, LastRunDate: "2026-05-02", Status: models.CronJobStatusCompleted},
		{JobName: models.JobDailyAnalytics, LastRunDate: "2026-05-01", Status: models.CronJobStatusCompleted},
		{JobName: models.JobDailyAnalytics, LastRunDate: "2026-05-03", Status: models.CronJobStatusFailed, ErrorMessage: "boom"},
		{JobName: "other", LastRunDate: "2026-06-01", Status: models.CronJobStatusCompleted},
	}
	for i := range entries {
		if err := repo.Create(ctx, &entries[i]); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := repo.LatestCompleted(ctx, models.JobDailyAnalytics)
	if err != nil {
		t.Fatal(err)
	}
	if latest.LastRunDate != "2026-05-02" {
		t.Fatalf("expected 2026-05-02, got %s", latest.LastRunDate)
	}

	logs, err := repo.List(ctx, models.JobDailyAnalytics, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 3 || logs[0].Status != models.CronJobStatusFailed {
		t.Fatalf("unexpected log listing: %+v", logs)
	}
}
