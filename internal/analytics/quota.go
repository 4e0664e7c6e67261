package analytics

import (
	"time"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// GroupQuota is the consolidated quota reading for one resource group
type GroupQuota struct {
	Limit            float64 `json:"limit"`
	Remaining6M      float64 `json:"remaining_6m"`
	Warning          bool    `json:"warning"`
	OverLimitPeriods int     `json:"over_limit_periods"`
}

// GroupUsage is one group's share of a period
type GroupUsage struct {
	Duration   int64   `json:"duration"`
	Percentage float64 `json:"percentage"`
}

// PeriodStats holds the per-group usage of one trailing period. Groups
// only contains groups with activity in the period.
type PeriodStats struct {
	Period        Period               `json:"period"`
	StartDate     time.Time            `json:"start_date"`
	TotalDuration int64                `json:"total_duration"`
	Groups        map[int64]GroupUsage `json:"groups"`
}

// QuotaStats is the full quota reading for a user
type QuotaStats struct {
	GroupLimits map[int64]*GroupQuota  `json:"group_limits"`
	Periods     map[string]PeriodStats `json:"periods"`
	ComputedAt  time.Time              `json:"computed_at"`
}

// CalculateQuotaStats evaluates every catalog period against records. A
// group is over limit in a period only when it has activity there, so a
// period without data never counts toward OverLimitPeriods.
func CalculateQuotaStats(groups []models.ResourceGroup, records []models.WorkRecord, now time.Time) *QuotaStats {
	stats := &QuotaStats{
		GroupLimits: make(map[int64]*GroupQuota, len(groups)),
		Periods:     make(map[string]PeriodStats, len(Periods)),
		ComputedAt:  now,
	}

	for _, g := range groups {
		limit := g.Limit()
		stats.GroupLimits[g.ID] = &GroupQuota{
			Limit:       limit,
			Remaining6M: limit,
		}
	}

	for _, p := range Periods {
		start := now.AddDate(0, 0, -p.Days)
		ps := PeriodStats{
			Period:    p,
			StartDate: start,
			Groups:    make(map[int64]GroupUsage),
		}

		durations := make(map[int64]int64)
		for _, r := range records {
			if r.CompletedAt.Before(start) || r.CompletedAt.After(now) {
				continue
			}
			ps.TotalDuration += r.DurationSeconds
			if r.ResourceGroupID != nil {
				durations[*r.ResourceGroupID] += r.DurationSeconds
			}
		}

		for groupID, d := range durations {
			usage := GroupUsage{Duration: d, Percentage: percentage(d, ps.TotalDuration)}
			ps.Groups[groupID] = usage

			quota, ok := stats.GroupLimits[groupID]
			if !ok {
				continue
			}
			if usage.Percentage > quota.Limit {
				quota.OverLimitPeriods++
			}
			if p.Name == LongTermPeriod {
				quota.Remaining6M = quota.Limit - usage.Percentage
			}
		}

		stats.Periods[p.Name] = ps
	}

	for _, quota := range stats.GroupLimits {
		quota.Warning = quota.OverLimitPeriods > 0
	}

	return stats
}
