package analytics

import (
	"strconv"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// ResourceKey maps a (nullable) resource group id to its bucket key
func ResourceKey(groupID *int64) string {
	if groupID == nil {
		return models.UnassignedResourceKey
	}
	return strconv.FormatInt(*groupID, 10)
}

// BuildDailySummary derives the daily record for one (user, date) from the
// source rows of that day. Records are expected to be pre-filtered to the
// day; meetings that are not completed are ignored.
func BuildDailySummary(
	userID int64,
	date string,
	records []models.WorkRecord,
	meetings []models.MeetingInstance,
	routines []models.RoutineInstance,
) models.DailyAnalyticsRecord {
	summary := models.DailyAnalyticsRecord{
		UserID:                 userID,
		Date:                   date,
		WorkDurationByResource: make(map[string]int64),
	}

	for _, r := range records {
		summary.WorkDurationByResource[ResourceKey(r.ResourceGroupID)] += r.DurationSeconds
		summary.TotalWorkDuration += r.DurationSeconds
	}

	for _, m := range meetings {
		if !m.IsCompleted {
			continue
		}
		summary.MeetingCount++
		summary.TotalMeetingDuration += m.DurationSeconds
	}

	summary.RoutineTotal = len(routines)
	for _, ri := range routines {
		if ri.Status == models.RoutineStatusCompleted {
			summary.RoutineCompleted++
		}
	}

	return summary
}
