package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// NoDueDateSentinel is reported as DaysUntilDue when a task has no resolvable due date.
// Callers must check TaskDates.HasDueDate before comparing DaysUntilDue numerically.
const NoDueDateSentinel = 999

const (
	descNoDueDate   = "No due date"
	descInvalidDate = "Invalid date"

	dueSoonDays     = 3
	weekBucketDays  = 7
	monthBucketDays = 30

	displayLayout = "Jan 2, 2006"
)

// dateLayouts are tried in order when parsing due dates from source records.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// TaskDates holds the date-derived fields of a task
type TaskDates struct {
	DaysUntilDue        int    `json:"days_until_due"`
	IsOverdue           bool   `json:"is_overdue"`
	IsToday             bool   `json:"is_today"`
	IsDueSoon           bool   `json:"is_due_soon"`
	HasDueDate          bool   `json:"has_due_date"`
	FormattedDate       string `json:"formatted_date"`
	RelativeDescription string `json:"relative_description"`
}

// noDueDate returns the sentinel result used for missing or unparseable dates
func noDueDate(description string) TaskDates {
	return TaskDates{
		DaysUntilDue:        NoDueDateSentinel,
		RelativeDescription: description,
	}
}

// ParseDate parses a date string using the accepted layouts.
// Date-only layouts are interpreted in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CalculateTaskDates computes the date-derived fields for a due date string.
// It never fails: missing or unparseable input yields the no-due-date sentinel.
func CalculateTaskDates(dueDate string, now time.Time) TaskDates {
	if strings.TrimSpace(dueDate) == "" {
		return noDueDate(descNoDueDate)
	}

	due, ok := ParseDate(dueDate, now.Location())
	if !ok {
		return noDueDate(descInvalidDate)
	}
	return CalculateTaskDatesFor(due, now)
}

// CalculateTaskDatesFor computes the date-derived fields for a parsed due date.
// A zero due date is treated as "no due date".
func CalculateTaskDatesFor(due, now time.Time) TaskDates {
	if due.IsZero() {
		return noDueDate(descNoDueDate)
	}

	days := DaysBetween(now, due)
	isOverdue := days < 0
	isToday := days == 0

	return TaskDates{
		DaysUntilDue:        days,
		IsOverdue:           isOverdue,
		IsToday:             isToday,
		IsDueSoon:           days > 0 && days <= dueSoonDays,
		HasDueDate:          true,
		FormattedDate:       due.In(now.Location()).Format(displayLayout),
		RelativeDescription: GetRelativeDescription(days, isOverdue, isToday),
	}
}

// GetRelativeDescription produces a human-readable description of a due-day delta
func GetRelativeDescription(daysUntilDue int, isOverdue, isToday bool) string {
	switch {
	case isOverdue:
		n := -daysUntilDue
		return fmt.Sprintf("%d %s overdue", n, plural(n, "day"))
	case isToday:
		return "Due today"
	case daysUntilDue == 1:
		return "Due tomorrow"
	case daysUntilDue < weekBucketDays:
		return fmt.Sprintf("Due in %d days", daysUntilDue)
	case daysUntilDue < monthBucketDays:
		weeks := daysUntilDue / weekBucketDays
		return fmt.Sprintf("Due in %d %s", weeks, plural(weeks, "week"))
	default:
		months := daysUntilDue / monthBucketDays
		return fmt.Sprintf("Due in %d %s", months, plural(months, "month"))
	}
}

// StartOfDay returns midnight of t in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the signed number of calendar days from one instant to another.
// Both instants are normalized to midnight in from's location, so time of day never matters.
func DaysBetween(from, to time.Time) int {
	start := StartOfDay(from)
	end := StartOfDay(to.In(from.Location()))
	// Rounding absorbs 23h/25h days around DST changes.
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// AddBusinessDays adds n weekdays to date, skipping Saturdays and Sundays.
// Negative n counts backwards.
func AddBusinessDays(date time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}

	result := date
	for added := 0; added < n; {
		result = result.AddDate(0, 0, step)
		if isWeekday(result) {
			added++
		}
	}
	return result
}

// GetBusinessDaysBetween counts weekdays from start to end, inclusive of both ends
func GetBusinessDaysBetween(start, end time.Time) int {
	day := StartOfDay(start)
	last := StartOfDay(end.In(start.Location()))

	count := 0
	for !day.After(last) {
		if isWeekday(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// CalculateRecommendedDueDate adds calendar days to the current date
func CalculateRecommendedDueDate(currentDate time.Time, recommendedDays int) time.Time {
	return currentDate.AddDate(0, 0, recommendedDays)
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
