package utils

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseDate converts a yyyy-mm-dd string into a UTC midnight time.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}
	return t.UTC(), nil
}

// ParseClock validates an HH:MM time of day and returns it normalized.
func ParseClock(clock string) (string, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return "", fmt.Errorf("invalid time format, expected HH:MM")
	}
	return t.Format(ClockLayout), nil
}

// TruncateToDate drops the time of day, keeping the calendar date in UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IntervalsOverlap reports whether the closed date ranges [aStart, aEnd]
// and [bStart, bEnd] share at least one day. Only calendar dates are
// compared.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	aStart, aEnd = TruncateToDate(aStart), TruncateToDate(aEnd)
	bStart, bEnd = TruncateToDate(bStart), TruncateToDate(bEnd)
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// InclusiveDays counts calendar days from start to end, both included.
// A same-day rental is one day. Returns an error when end precedes start.
func InclusiveDays(start, end time.Time) (int, error) {
	start, end = TruncateToDate(start), TruncateToDate(end)
	if end.Before(start) {
		return 0, fmt.Errorf("end date must be >= start date")
	}
	hours := end.Sub(start).Hours()
	days := int(hours / 24)
	if float64(days)*24 < hours {
		days++
	}
	return days + 1, nil
}
