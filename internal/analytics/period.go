package analytics

// Period is a named trailing window used for quota evaluation
type Period struct {
	Name   string  `json:"name"`
	Days   int     `json:"days"`
	Weight float64 `json:"weight"`
}

// LongTermPeriod dominates the priority score
const LongTermPeriod = "6M"

// Periods is the catalog, shortest first. The 6M weight exceeds the sum of
// every shorter weight (63) so long-term exhaustion always outranks
// short-term fluctuation.
var Periods = []Period{
	{Name: "1D", Days: 1, Weight: 1},
	{Name: "3D", Days: 3, Weight: 2},
	{Name: "7D", Days: 7, Weight: 4},
	{Name: "15D", Days: 15, Weight: 8},
	{Name: "30D", Days: 30, Weight: 16},
	{Name: "90D", Days: 90, Weight: 32},
	{Name: LongTermPeriod, Days: 180, Weight: 1000},
}

// PeriodByName looks a period up in the catalog
func PeriodByName(name string) (Period, bool) {
	for _, p := range Periods {
		if p.Name == name {
			return p, true
		}
	}
	return Period{}, false
}

// LongestPeriodDays is the widest window any quota calculation reads
func LongestPeriodDays() int {
	days := 0
	for _, p := range Periods {
		if p.Days > days {
			days = p.Days
		}
	}
	return days
}
