package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/quota-backend-go/internal/cache"
	"github.com/jengzang/quota-backend-go/internal/config"
	"github.com/jengzang/quota-backend-go/internal/database"
	"github.com/jengzang/quota-backend-go/internal/handler"
	"github.com/jengzang/quota-backend-go/internal/middleware"
	"github.com/jengzang/quota-backend-go/internal/models"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"github.com/jengzang/quota-backend-go/internal/repository"
	"github.com/jengzang/quota-backend-go/internal/service"
	"go.uber.org/zap"
)

type testServer struct {
	router *gin.Engine
	runner *service.BackgroundRunner
	token  string
	userID int64
	groups *repository.ResourceGroupRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	db, err := database.Open(database.Config{Path: database.MemoryPath}, logger)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.JWTSecret = "router-test"
	loc := time.UTC
	metrics := observability.NewMetrics()

	users := repository.NewUserRepository(db)
	groups := repository.NewResourceGroupRepository(db)
	records := repository.NewWorkRecordRepository(db)
	schedule := repository.NewScheduleRepository(db)
	tasks := repository.NewTaskRepository(db)
	daily := repository.NewDailyAnalyticsRepository(db)

	runner := service.NewBackgroundRunner(logger, metrics, 5*time.Second)
	t.Cleanup(runner.Wait)

	aggregator := service.NewDailyAggregator(records, schedule, daily, loc, metrics, logger)
	quota := service.NewQuotaService(groups, records)
	backfill := service.NewBackfillService(aggregator, daily, users, repository.NewCronJobLogRepository(db), runner, loc, metrics, logger)
	priorities := service.NewPriorityService(quota, tasks, repository.NewPriorityRepository(db), logger)
	mem := cache.NewMemory(time.Minute, metrics)
	t.Cleanup(mem.Close)
	analytics := service.NewAnalyticsService(backfill, quota, groups, mem, loc, logger)
	activity := service.NewActivityService(records, schedule, groups, tasks, aggregator, priorities, runner, loc, logger)

	router := SetupRouter(cfg, logger, metrics, nil, Handlers{
		Analytics: handler.NewAnalyticsHandler(analytics),
		Priority:  handler.NewPriorityHandler(priorities),
		Activity:  handler.NewActivityHandler(activity),
	})

	userID, err := users.Create(context.Background(), "tester")
	if err != nil {
		t.Fatal(err)
	}
	token, err := middleware.IssueToken(cfg.JWTSecret, userID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	return &testServer{router: router, runner: runner, token: token, userID: userID, groups: groups}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode %s: %v", w.Body.String(), err)
		}
	}
	return w.Code, decoded
}

// ============================================================
// Public routes
// ============================================================

func TestHealthAndMetricsArePublic(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/sorted", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

// ============================================================
// Analytics
// ============================================================

func TestWorkRecordFlowsIntoOverview(t *testing.T) {
	s := newTestServer(t)

	limit := 30.0
	group := &models.ResourceGroup{UserID: s.userID, Name: "Deep work", PercentageLimit: &limit}
	if err := s.groups.Create(context.Background(), group); err != nil {
		t.Fatal(err)
	}

	code, _ := s.do(t, http.MethodPost, "/api/v1/work-records", map[string]interface{}{
		"resource_group_id": group.ID,
		"title":             "write",
		"duration_seconds":  3600,
		"completed_at":      "2026-06-01T10:00:00Z",
	})
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	s.runner.Wait()

	code, body := s.do(t, http.MethodGet, "/api/v1/analytics/overview?start=2026-06-01&end=2026-06-01", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	data := body["data"].(map[string]interface{})
	if data["total_work_duration"].(float64) != 3600 || data["has_gaps"].(bool) {
		t.Fatalf("unexpected overview %v", data)
	}
	if body["message"] != "success" || body["meta"].(map[string]interface{})["has_gaps"].(bool) {
		t.Fatalf("stored range should report no gaps: %v", body)
	}
	dist := data["resource_distribution"].([]interface{})
	first := dist[0].(map[string]interface{})
	if first["key"] != strconv.FormatInt(group.ID, 10) || first["name"] != "Deep work" || first["percentage"].(float64) != 100 {
		t.Fatalf("unexpected distribution %v", dist)
	}

	code, body = s.do(t, http.MethodGet,
		"/api/v1/analytics/sliding-window?window=1&resourceGroupId="+strconv.FormatInt(group.ID, 10)+"&start=2026-06-01&end=2026-06-01", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	window := body["data"].(map[string]interface{})
	if window["target_line"].(float64) != 30 {
		t.Fatalf("unexpected target line %v", window["target_line"])
	}
}

func TestOverviewWithGapsIsMarkedPartial(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/v1/analytics/overview?start=2026-05-01&end=2026-05-03", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	s.runner.Wait()

	if body["message"] != "partial" {
		t.Fatalf("expected partial message, got %v", body["message"])
	}
	if !body["meta"].(map[string]interface{})["has_gaps"].(bool) {
		t.Fatalf("expected has_gaps in meta, got %v", body["meta"])
	}

	// the background recompute has filled the range by now
	_, body = s.do(t, http.MethodGet, "/api/v1/analytics/overview?start=2026-05-01&end=2026-05-03", nil)
	if body["meta"].(map[string]interface{})["has_gaps"].(bool) {
		t.Fatalf("expected a gap-free second read, got %v", body)
	}
}

func TestSlidingWindowBadRequests(t *testing.T) {
	s := newTestServer(t)

	paths := []string{
		"/api/v1/analytics/sliding-window?start=2026-06-01",
		"/api/v1/analytics/sliding-window?window=abc&start=2026-06-01&end=2026-06-02",
		"/api/v1/analytics/sliding-window?window=0&start=2026-06-01&end=2026-06-02",
		"/api/v1/analytics/sliding-window?window=400&start=2026-06-01&end=2026-06-02",
		"/api/v1/analytics/sliding-window?start=2026-06-05&end=2026-06-01",
		"/api/v1/analytics/overview?start=2026-06-05&end=2026-06-01",
		"/api/v1/analytics/overview?start=0001-01-01&end=9999-12-31",
		"/api/v1/analytics/sliding-window?start=0001-01-01&end=9999-12-31",
	}
	for _, path := range paths {
		if code, _ := s.do(t, http.MethodGet, path, nil); code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, code)
		}
	}

	code, _ := s.do(t, http.MethodGet, "/api/v1/analytics/sliding-window?resourceGroupId=999&start=2026-06-01&end=2026-06-02", nil)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown group, got %d", code)
	}
}

func TestQuotaAndPriorities(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(t, http.MethodGet, "/api/v1/analytics/quota", nil); code != http.StatusOK {
		t.Fatalf("quota: expected 200, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/priorities/refresh", nil); code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", code)
	}
	code, body := s.do(t, http.MethodGet, "/api/v1/tasks/sorted", nil)
	if code != http.StatusOK {
		t.Fatalf("sorted: expected 200, got %d", code)
	}
	data := body["data"].(map[string]interface{})
	if data["total"].(float64) != 0 {
		t.Fatalf("expected no tasks, got %v", data)
	}
}

// ============================================================
// Activity
// ============================================================

func TestActivityErrors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		method, path string
		body         interface{}
		want         int
	}{
		{http.MethodPost, "/api/v1/work-records", map[string]interface{}{"duration_seconds": 0}, http.StatusBadRequest},
		{http.MethodPut, "/api/v1/work-records/abc", map[string]interface{}{}, http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/work-records/77", nil, http.StatusNotFound},
		{http.MethodPost, "/api/v1/meetings/77/complete", nil, http.StatusNotFound},
		{http.MethodPut, "/api/v1/routine-instances/77/status", map[string]interface{}{"status": "bogus"}, http.StatusBadRequest},
		{http.MethodPut, "/api/v1/routine-instances/77/status", map[string]interface{}{"status": "completed"}, http.StatusNotFound},
		{http.MethodPut, "/api/v1/tasks/weekly/1/active", map[string]interface{}{"is_active": false}, http.StatusBadRequest},
		{http.MethodPut, "/api/v1/tasks/simple/1/active", map[string]interface{}{"is_active": false}, http.StatusNotFound},
	}
	for _, tc := range cases {
		if code, _ := s.do(t, tc.method, tc.path, tc.body); code != tc.want {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, code)
		}
	}
}
