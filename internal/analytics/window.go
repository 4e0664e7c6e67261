package analytics

import (
	"sort"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// ResourceShare is one resource's portion of a window
type ResourceShare struct {
	ResourceKey string  `json:"resource_key"`
	Duration    int64   `json:"duration"`
	Percentage  float64 `json:"percentage"`
}

// DataPoint is the trailing-window breakdown ending on Date
type DataPoint struct {
	Date        string `json:"date"`
	WindowTotal int64  `json:"window_total"`

	// Set in filtered mode only
	Percentage *float64 `json:"percentage,omitempty"`
	// Set in unfiltered mode only
	Resources []ResourceShare `json:"resources,omitempty"`
}

// WindowSeries computes, for each day, the percentage breakdown over the
// trailing windowDays days ending on that day. records must be date
// ordered and gap-free.
//
// Running sums are updated by adding the current day and evicting the day
// that fell out of the window, so each day costs O(resources touched)
// instead of a re-sum of the whole window.
func WindowSeries(records []models.DailyAnalyticsRecord, windowDays int, filter *string) []DataPoint {
	if windowDays < 1 {
		windowDays = 1
	}

	windowSum := make(map[string]int64)
	var windowTotal int64

	points := make([]DataPoint, 0, len(records))
	for i, record := range records {
		for key, d := range record.WorkDurationByResource {
			windowSum[key] += d
		}
		windowTotal += record.TotalWorkDuration

		if i >= windowDays {
			evicted := records[i-windowDays]
			for key, d := range evicted.WorkDurationByResource {
				windowSum[key] -= d
				if windowSum[key] <= 0 {
					delete(windowSum, key)
				}
			}
			windowTotal -= evicted.TotalWorkDuration
		}

		point := DataPoint{Date: record.Date, WindowTotal: windowTotal}
		if filter != nil {
			pct := percentage(windowSum[*filter], windowTotal)
			point.Percentage = &pct
		} else {
			point.Resources = shares(windowSum, windowTotal)
		}
		points = append(points, point)
	}

	return points
}

func shares(windowSum map[string]int64, windowTotal int64) []ResourceShare {
	out := make([]ResourceShare, 0, len(windowSum))
	for key, d := range windowSum {
		if d <= 0 {
			continue
		}
		out = append(out, ResourceShare{
			ResourceKey: key,
			Duration:    d,
			Percentage:  percentage(d, windowTotal),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration > out[j].Duration
		}
		return out[i].ResourceKey < out[j].ResourceKey
	})
	return out
}

func percentage(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
