package analytics

import (
	"fmt"
	"time"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// ParseDate parses YYYY-MM-DD as midnight in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders the calendar day of t
func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// StartOfDay truncates t to midnight in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns [midnight, next midnight) for the day containing t.
// AddDate keeps DST days at their real length.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := StartOfDay(day, day.Location())
	return start, start.AddDate(0, 0, 1)
}

// DateRange lists every calendar day in [start, end], inclusive
func DateRange(start, end time.Time) []time.Time {
	start = StartOfDay(start, start.Location())
	end = StartOfDay(end, start.Location())

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
