package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday afternoon; time of day must not leak into day counts.
var testNow = time.Date(2024, 6, 12, 14, 30, 0, 0, time.UTC)

func TestCalculateTaskDates(t *testing.T) {
	tests := []struct {
		name        string
		dueDate     string
		wantDays    int
		wantOverdue bool
		wantToday   bool
		wantSoon    bool
		wantDesc    string
	}{
		{"overdue by five days", "2024-06-07", -5, true, false, false, "5 days overdue"},
		{"overdue by one day", "2024-06-11T23:59:00Z", -1, true, false, false, "1 day overdue"},
		{"due today early morning", "2024-06-12T00:01:00Z", 0, false, true, false, "Due today"},
		{"due tomorrow", "2024-06-13", 1, false, false, true, "Due tomorrow"},
		{"due in three days", "06/15/2024", 3, false, false, true, "Due in 3 days"},
		{"due in four days is not soon", "2024-06-16", 4, false, false, false, "Due in 4 days"},
		{"due in two weeks", "2024-06-26", 14, false, false, false, "Due in 2 weeks"},
		{"due in two months", "2024-08-12", 61, false, false, false, "Due in 2 months"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTaskDates(tt.dueDate, testNow)

			assert.True(t, got.HasDueDate)
			assert.Equal(t, tt.wantDays, got.DaysUntilDue)
			assert.Equal(t, tt.wantOverdue, got.IsOverdue)
			assert.Equal(t, tt.wantToday, got.IsToday)
			assert.Equal(t, tt.wantSoon, got.IsDueSoon)
			assert.Equal(t, tt.wantDesc, got.RelativeDescription)
			assert.NotEmpty(t, got.FormattedDate)
		})
	}
}

func TestCalculateTaskDates_Sentinel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantDesc string
	}{
		{"empty", "", "No due date"},
		{"whitespace", "   ", "No due date"},
		{"garbage", "next tuesday-ish", "Invalid date"},
		{"impossible date", "2024-02-31", "Invalid date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTaskDates(tt.input, testNow)

			assert.Equal(t, NoDueDateSentinel, got.DaysUntilDue)
			assert.False(t, got.HasDueDate)
			assert.False(t, got.IsOverdue)
			assert.False(t, got.IsToday)
			assert.False(t, got.IsDueSoon)
			assert.Equal(t, tt.wantDesc, got.RelativeDescription)
		})
	}
}

func TestCalculateTaskDatesFor_ZeroTime(t *testing.T) {
	got := CalculateTaskDatesFor(time.Time{}, testNow)

	assert.Equal(t, NoDueDateSentinel, got.DaysUntilDue)
	assert.False(t, got.HasDueDate)
}

func TestCalculateTaskDates_TimeOfDayIgnored(t *testing.T) {
	late := time.Date(2024, 6, 12, 23, 59, 0, 0, time.UTC)
	early := time.Date(2024, 6, 12, 0, 0, 1, 0, time.UTC)

	assert.Equal(t,
		CalculateTaskDates("2024-06-20", late).DaysUntilDue,
		CalculateTaskDates("2024-06-20", early).DaysUntilDue)
}

func TestGetRelativeDescription(t *testing.T) {
	assert.Equal(t, "3 days overdue", GetRelativeDescription(-3, true, false))
	assert.Equal(t, "Due today", GetRelativeDescription(0, false, true))
	assert.Equal(t, "Due tomorrow", GetRelativeDescription(1, false, false))
	assert.Equal(t, "Due in 6 days", GetRelativeDescription(6, false, false))
	assert.Equal(t, "Due in 1 week", GetRelativeDescription(7, false, false))
	assert.Equal(t, "Due in 4 weeks", GetRelativeDescription(29, false, false))
	assert.Equal(t, "Due in 1 month", GetRelativeDescription(30, false, false))
}

func TestAddBusinessDays(t *testing.T) {
	friday := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		n    int
		want time.Time
	}{
		{"friday plus one is monday", friday, 1, time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC)},
		{"friday plus five is next friday", friday, 5, time.Date(2024, 6, 21, 9, 0, 0, 0, time.UTC)},
		{"wednesday plus three crosses weekend", testNow, 3, time.Date(2024, 6, 17, 14, 30, 0, 0, time.UTC)},
		{"saturday plus one is monday", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)},
		{"zero is identity", friday, 0, friday},
		{"monday minus one is friday", time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC), -1, friday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddBusinessDays(tt.from, tt.n)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestGetBusinessDaysBetween(t *testing.T) {
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	nextMonday := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, GetBusinessDaysBetween(monday, sunday))
	assert.Equal(t, 6, GetBusinessDaysBetween(monday, nextMonday))
	assert.Equal(t, 1, GetBusinessDaysBetween(monday, monday))
	assert.Equal(t, 0, GetBusinessDaysBetween(sunday, sunday))
	assert.Equal(t, 0, GetBusinessDaysBetween(nextMonday, monday))
}

func TestCalculateRecommendedDueDate(t *testing.T) {
	got := CalculateRecommendedDueDate(testNow, 7)
	assert.Equal(t, time.Date(2024, 6, 19, 14, 30, 0, 0, time.UTC), got)
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-06-12", time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseDate("not a date", time.UTC)
	assert.False(t, ok)
}
