package analytics

import "math"

// OverLimitPenalty is subtracted once per period a group is over quota
const OverLimitPenalty = 10000

// ScoreTask ranks a task by the unused quota left in its resource group.
// Tasks without a group, or with a group unknown to stats, score 0.
func ScoreTask(groupID *int64, stats *QuotaStats) int64 {
	if groupID == nil || stats == nil {
		return 0
	}
	quota, ok := stats.GroupLimits[*groupID]
	if !ok {
		return 0
	}

	longTerm, _ := PeriodByName(LongTermPeriod)
	score := quota.Remaining6M * longTerm.Weight

	for _, p := range Periods {
		if p.Name == LongTermPeriod {
			continue
		}
		remaining := quota.Limit
		if usage, ok := stats.Periods[p.Name].Groups[*groupID]; ok {
			remaining = quota.Limit - usage.Percentage
		}
		score += remaining * p.Weight
	}

	if quota.Warning && quota.OverLimitPeriods > 0 {
		score -= float64(OverLimitPenalty * quota.OverLimitPeriods)
	}

	return int64(math.Round(score))
}
