package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jengzang/quota-backend-go/internal/analytics"
	"github.com/jengzang/quota-backend-go/internal/cache"
	"github.com/jengzang/quota-backend-go/internal/models"
	"github.com/jengzang/quota-backend-go/internal/repository"
	"go.uber.org/zap"
)

// UnassignedResourceName labels work without a resource group
const UnassignedResourceName = "Unassigned"

// ResourceDistribution is one resource's share of an overview range
type ResourceDistribution struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	Duration   int64   `json:"duration"`
	Percentage float64 `json:"percentage"`
}

// Overview summarises a date range
type Overview struct {
	StartDate            string                 `json:"start_date"`
	EndDate              string                 `json:"end_date"`
	TotalWorkDuration    int64                  `json:"total_work_duration"`
	TotalMeetingDuration int64                  `json:"total_meeting_duration"`
	MeetingCount         int                    `json:"meeting_count"`
	RoutineCompleted     int                    `json:"routine_completed"`
	RoutineTotal         int                    `json:"routine_total"`
	ResourceDistribution []ResourceDistribution `json:"resource_distribution"`
	DaysCovered          int                    `json:"days_covered"`
	HasGaps              bool                   `json:"has_gaps"`
}

// SlidingWindowQuery selects a sliding-window series
type SlidingWindowQuery struct {
	WindowDays      int
	ResourceGroupID *int64
	Start           string
	End             string
}

// SlidingWindow is the series plus the quota line of the filtered group
type SlidingWindow struct {
	WindowDays      int                   `json:"window_days"`
	ResourceGroupID *int64                `json:"resource_group_id"`
	DataPoints      []analytics.DataPoint `json:"data_points"`
	TargetLine      *float64              `json:"target_line"`
	HasGaps         bool                  `json:"has_gaps"`
}

// AnalyticsService serves the read side of the engine
type AnalyticsService struct {
	backfill *BackfillService
	quota    *QuotaService
	groups   *repository.ResourceGroupRepository
	cache    cache.Cache
	loc      *time.Location
	logger   *zap.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	backfill *BackfillService,
	quota *QuotaService,
	groups *repository.ResourceGroupRepository,
	c cache.Cache,
	loc *time.Location,
	logger *zap.Logger,
) *AnalyticsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &AnalyticsService{
		backfill: backfill,
		quota:    quota,
		groups:   groups,
		cache:    c,
		loc:      loc,
		logger:   logger,
	}
}

// GetOverview aggregates [start, end] from daily records
func (s *AnalyticsService) GetOverview(ctx context.Context, userID int64, start, end string) (*Overview, error) {
	from, to, err := s.parseRange(start, end)
	if err != nil {
		return nil, err
	}

	key := cache.OverviewKey(userID, start, end)
	var cached Overview
	if s.loadCached(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.backfill.EnsureRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	names, err := s.groupNames(ctx, userID)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		StartDate:   start,
		EndDate:     end,
		DaysCovered: len(result.Records),
		HasGaps:     result.HasGaps,
	}
	byResource := make(map[string]int64)
	for _, rec := range result.Records {
		overview.TotalWorkDuration += rec.TotalWorkDuration
		overview.TotalMeetingDuration += rec.TotalMeetingDuration
		overview.MeetingCount += rec.MeetingCount
		overview.RoutineCompleted += rec.RoutineCompleted
		overview.RoutineTotal += rec.RoutineTotal
		for k, d := range rec.WorkDurationByResource {
			byResource[k] += d
		}
	}

	overview.ResourceDistribution = make([]ResourceDistribution, 0, len(byResource))
	for k, d := range byResource {
		pct := 0.0
		if overview.TotalWorkDuration > 0 {
			pct = float64(d) / float64(overview.TotalWorkDuration) * 100
		}
		overview.ResourceDistribution = append(overview.ResourceDistribution, ResourceDistribution{
			Key:        k,
			Name:       resourceName(names, k),
			Duration:   d,
			Percentage: pct,
		})
	}
	sort.Slice(overview.ResourceDistribution, func(i, j int) bool {
		a, b := overview.ResourceDistribution[i], overview.ResourceDistribution[j]
		if a.Duration != b.Duration {
			return a.Duration > b.Duration
		}
		return a.Key < b.Key
	})

	if !overview.HasGaps {
		s.storeCached(ctx, key, overview)
	}
	return overview, nil
}

// GetSlidingWindow computes the trailing-window series for [Start, End]
func (s *AnalyticsService) GetSlidingWindow(ctx context.Context, userID int64, q SlidingWindowQuery) (*SlidingWindow, error) {
	if q.WindowDays < 1 || q.WindowDays > MaxWindowDays {
		return nil, fmt.Errorf("%w: window must be between 1 and %d days", ErrInvalidArgument, MaxWindowDays)
	}
	from, to, err := s.parseRange(q.Start, q.End)
	if err != nil {
		return nil, err
	}

	var filter *string
	if q.ResourceGroupID != nil {
		k := analytics.ResourceKey(q.ResourceGroupID)
		filter = &k
	}

	key := cache.SlidingWindowKey(userID, q.WindowDays, filter, q.Start, q.End)
	var cached SlidingWindow
	if s.loadCached(ctx, key, &cached) {
		return &cached, nil
	}

	window := &SlidingWindow{
		WindowDays:      q.WindowDays,
		ResourceGroupID: q.ResourceGroupID,
	}
	if q.ResourceGroupID != nil {
		group, err := s.groups.GetByID(ctx, userID, *q.ResourceGroupID)
		if err != nil {
			return nil, err
		}
		window.TargetLine = group.PercentageLimit
	}

	// Lead-in days so the first requested day already has a full window
	fetchFrom := from.AddDate(0, 0, -(q.WindowDays - 1))
	result, err := s.backfill.EnsureRange(ctx, userID, fetchFrom, to)
	if err != nil {
		return nil, err
	}
	window.HasGaps = result.HasGaps

	first := analytics.FormatDate(from)
	points := analytics.WindowSeries(result.Records, q.WindowDays, filter)
	window.DataPoints = make([]analytics.DataPoint, 0, len(points))
	for _, p := range points {
		if p.Date >= first {
			window.DataPoints = append(window.DataPoints, p)
		}
	}

	if !window.HasGaps {
		s.storeCached(ctx, key, window)
	}
	return window, nil
}

// GetQuota returns the current multi-period quota reading
func (s *AnalyticsService) GetQuota(ctx context.Context, userID int64) (*analytics.QuotaStats, error) {
	return s.quota.Stats(ctx, userID)
}

func (s *AnalyticsService) parseRange(start, end string) (time.Time, time.Time, error) {
	from, err := analytics.ParseDate(start, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start date %q", ErrInvalidArgument, start)
	}
	to, err := analytics.ParseDate(end, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end date %q", ErrInvalidArgument, end)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidArgument, start, end)
	}
	if to.After(from.AddDate(0, 0, MaxRangeDays-1)) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidArgument, MaxRangeDays)
	}
	return from, to, nil
}

func (s *AnalyticsService) groupNames(ctx context.Context, userID int64) (map[string]string, error) {
	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource groups: %w", err)
	}
	names := make(map[string]string, len(groups)+1)
	names[models.UnassignedResourceKey] = UnassignedResourceName
	for _, g := range groups {
		names[strconv.FormatInt(g.ID, 10)] = g.Name
	}
	return names, nil
}

// resourceName falls back to the key for groups deleted since the day was aggregated
func resourceName(names map[string]string, key string) string {
	if name, ok := names[key]; ok {
		return name
	}
	return key
}

func (s *AnalyticsService) loadCached(ctx context.Context, key string, dst interface{}) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *AnalyticsService) storeCached(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, raw)
}
