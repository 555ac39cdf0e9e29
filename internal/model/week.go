package model

import (
	"fmt"
	"strings"
	"time"
)

const weekIDLayout = "2006-01-02"

// WeekID returns the id of the week containing t: the date of its Monday.
func WeekID(t time.Time) string {
	return WeekStart(t).Format(weekIDLayout)
}

// WeekStart returns midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	year, month, day := t.Date()
	return time.Date(year, month, day-offset, 0, 0, 0, 0, t.Location())
}

// ParseWeekID validates a week id and returns its Monday at UTC midnight.
func ParseWeekID(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := time.Parse(weekIDLayout, trimmed)
	if err != nil {
		return time.Time{}, &InvalidValueError{Field: "week_id", Value: value}
	}
	if parsed.Weekday() != time.Monday {
		return time.Time{}, &InvalidValueError{Field: "week_id", Value: value}
	}
	return parsed, nil
}

// NormalizeWeekID trims value and checks that it is a calendar date. It does
// not require a Monday, so ids written with a different anchor stay readable.
func NormalizeWeekID(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if _, err := time.Parse(weekIDLayout, trimmed); err != nil {
		return "", &InvalidValueError{Field: "week_id", Value: value}
	}
	return trimmed, nil
}

// ShiftWeek moves a week id by n weeks.
func ShiftWeek(weekID string, n int) (string, error) {
	start, err := ParseWeekID(weekID)
	if err != nil {
		return "", err
	}
	return start.AddDate(0, 0, 7*n).Format(weekIDLayout), nil
}

// DayDate returns the calendar date of day within the given week.
func DayDate(weekID string, day Day) (time.Time, error) {
	start, err := ParseWeekID(weekID)
	if err != nil {
		return time.Time{}, err
	}
	if !day.Valid() {
		return time.Time{}, &InvalidValueError{Field: "day", Value: string(day)}
	}
	return start.AddDate(0, 0, day.Index()), nil
}

// WeekRange formats a week for headers, e.g. "Jan 1 - Jan 7, 2024".
func WeekRange(weekID string) string {
	start, err := ParseWeekID(weekID)
	if err != nil {
		return weekID
	}
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
}
