package availability

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Day drops the time-of-day component, keeping the calendar date as seen in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay reads the calendar date of an ISO-8601 date or date-time string.
// The date is taken as written, so "2024-06-05T23:30:00-05:00" is June 5th.
func ParseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) == len(DateLayout) {
		t, err := time.Parse(DateLayout, raw)
		return t, err == nil
	}
	if len(raw) < len(DateLayout) || (raw[len(DateLayout)] != 'T' && raw[len(DateLayout)] != ' ') {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// FormatDay renders a day in DateLayout.
func FormatDay(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// AddDays shifts a day by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}
