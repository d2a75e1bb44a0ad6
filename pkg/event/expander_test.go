package event

import (
	"testing"
	"time"

	"github.com/gatherly/gatherly/pkg/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEvent(start time.Time, duration time.Duration) Event {
	return Event{
		ID:        1,
		UserID:    42,
		Title:     "Standup",
		Colour:    DefaultColour,
		StartTime: start,
		EndTime:   start.Add(duration),
	}
}

func TestExpand_NonRecurring(t *testing.T) {
	expander := NewExpander()
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	e := baseEvent(start, time.Hour)

	t.Run("inside window returns the event itself", func(t *testing.T) {
		occurrences, err := expander.Expand(e, start.AddDate(0, 0, -1), start.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, occurrences, 1)
		assert.Equal(t, e.StartTime, occurrences[0].StartTime)
		assert.Equal(t, e.EndTime, occurrences[0].EndTime)
		assert.Equal(t, e.Title, occurrences[0].Title)
		assert.False(t, occurrences[0].Recurring)
	})

	t.Run("outside window returns nothing", func(t *testing.T) {
		occurrences, err := expander.Expand(e, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2))
		require.NoError(t, err)
		assert.Empty(t, occurrences)
	})

	t.Run("overlapping window boundary is included", func(t *testing.T) {
		// Event starts before the window but is still running at windowStart.
		occurrences, err := expander.Expand(e, start.Add(30*time.Minute), start.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Len(t, occurrences, 1)
	})

	t.Run("invalid window is rejected", func(t *testing.T) {
		_, err := expander.Expand(e, start, start)
		assert.ErrorIs(t, err, interval.ErrInvalidRange)
	})
}

func TestExpand_Daily(t *testing.T) {
	expander := NewExpander()
	anchor := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	e := baseEvent(anchor, 45*time.Minute)
	e.Recurrence = &Recurrence{Pattern: Daily}

	t.Run("ten day window from anchor yields exactly ten occurrences", func(t *testing.T) {
		occurrences, err := expander.Expand(e, anchor, anchor.AddDate(0, 0, 10))
		require.NoError(t, err)
		require.Len(t, occurrences, 10)
		for i, occ := range occurrences {
			assert.Equal(t, anchor.AddDate(0, 0, i), occ.StartTime)
			assert.Equal(t, 45*time.Minute, occ.EndTime.Sub(occ.StartTime), "duration preserved")
		}
	})

	t.Run("window starting before the anchor starts at the anchor", func(t *testing.T) {
		occurrences, err := expander.Expand(e, anchor.AddDate(0, 0, -5), anchor.AddDate(0, 0, 3))
		require.NoError(t, err)
		require.Len(t, occurrences, 3)
		assert.Equal(t, anchor, occurrences[0].StartTime)
	})

	t.Run("recurrence end boundary is inclusive", func(t *testing.T) {
		end := anchor.AddDate(0, 0, 2)
		e := e
		e.Recurrence = &Recurrence{Pattern: Daily, EndAt: &end}
		occurrences, err := expander.Expand(e, anchor, anchor.AddDate(0, 0, 30))
		require.NoError(t, err)
		require.Len(t, occurrences, 3)
		assert.Equal(t, end, occurrences[2].StartTime)
	})

	t.Run("expansion is idempotent", func(t *testing.T) {
		first, err := expander.Expand(e, anchor, anchor.AddDate(0, 0, 10))
		require.NoError(t, err)
		second, err := expander.Expand(e, anchor, anchor.AddDate(0, 0, 10))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestExpand_Weekly(t *testing.T) {
	expander := NewExpander()
	// 2025-03-10 is a Monday.
	anchor := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	e := baseEvent(anchor, time.Hour)
	e.Recurrence = &Recurrence{
		Pattern:  Weekly,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
	}

	t.Run("two week window yields two occurrences per week", func(t *testing.T) {
		occurrences, err := expander.Expand(e, anchor, anchor.AddDate(0, 0, 14))
		require.NoError(t, err)
		require.Len(t, occurrences, 4)

		assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), occurrences[0].StartTime)
		assert.Equal(t, time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC), occurrences[1].StartTime)
		assert.Equal(t, time.Date(2025, 3, 17, 14, 0, 0, 0, time.UTC), occurrences[2].StartTime)
		assert.Equal(t, time.Date(2025, 3, 19, 14, 0, 0, 0, time.UTC), occurrences[3].StartTime)
	})

	t.Run("weekday order in the rule does not affect output order", func(t *testing.T) {
		shuffled := e
		shuffled.Recurrence = &Recurrence{
			Pattern:  Weekly,
			Weekdays: []time.Weekday{time.Wednesday, time.Monday},
		}
		occurrences, err := expander.Expand(shuffled, anchor, anchor.AddDate(0, 0, 14))
		require.NoError(t, err)
		require.Len(t, occurrences, 4)
		for i := 1; i < len(occurrences); i++ {
			assert.True(t, occurrences[i-1].StartTime.Before(occurrences[i].StartTime))
		}
	})

	t.Run("week anchoring follows the event's zone when the window zone disagrees", func(t *testing.T) {
		loc := time.FixedZone("UTC-5", -5*3600)
		// Monday 2025-03-10 in the event's zone.
		e := baseEvent(time.Date(2025, 3, 10, 9, 0, 0, 0, loc), time.Hour)
		e.Recurrence = &Recurrence{Pattern: Weekly, Weekdays: []time.Weekday{time.Wednesday}}

		// Sunday 01:00 UTC is still Saturday evening in the event's zone.
		windowStart := time.Date(2025, 3, 16, 1, 0, 0, 0, time.UTC)
		occurrences, err := expander.Expand(e, windowStart, windowStart.AddDate(0, 0, 7))
		require.NoError(t, err)
		require.Len(t, occurrences, 1)
		assert.Equal(t, time.Wednesday, occurrences[0].StartTime.Weekday())
		assert.Equal(t, time.Date(2025, 3, 19, 9, 0, 0, 0, loc), occurrences[0].StartTime)
	})

	t.Run("unterminated recurrence is capped at the configured week steps", func(t *testing.T) {
		occurrences, err := expander.Expand(e, anchor, anchor.AddDate(3, 0, 0))
		require.NoError(t, err)
		// Two occurrences per week, at most MaxWeeklySteps week-steps.
		assert.LessOrEqual(t, len(occurrences), 2*expander.MaxWeeklySteps)
		assert.Greater(t, len(occurrences), 2*(expander.MaxWeeklySteps-2), "cap should be the limiting factor")
	})
}

func TestExpand_Monthly(t *testing.T) {
	expander := NewExpander()
	anchor := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	e := baseEvent(anchor, 2*time.Hour)
	e.Recurrence = &Recurrence{Pattern: Monthly, MonthDays: []int{31}}

	t.Run("day 31 skips February silently", func(t *testing.T) {
		occurrences, err := expander.Expand(e, anchor, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, occurrences, 2)
		assert.Equal(t, time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC), occurrences[0].StartTime)
		assert.Equal(t, time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC), occurrences[1].StartTime)
	})

	t.Run("multiple month days expand in calendar order", func(t *testing.T) {
		e := baseEvent(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC), time.Hour)
		e.Recurrence = &Recurrence{Pattern: Monthly, MonthDays: []int{15, 1}}
		occurrences, err := expander.Expand(e, e.StartTime, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, occurrences, 4)
		assert.Equal(t, 1, occurrences[0].StartTime.Day())
		assert.Equal(t, 15, occurrences[1].StartTime.Day())
		assert.Equal(t, 1, occurrences[2].StartTime.Day())
		assert.Equal(t, 15, occurrences[3].StartTime.Day())
	})

	t.Run("unterminated recurrence is capped at the configured month steps", func(t *testing.T) {
		e := baseEvent(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), time.Hour)
		e.Recurrence = &Recurrence{Pattern: Monthly, MonthDays: []int{1}}
		occurrences, err := expander.Expand(e, e.StartTime, e.StartTime.AddDate(10, 0, 0))
		require.NoError(t, err)
		assert.Len(t, occurrences, expander.MaxMonthlySteps)
	})
}

func TestRecurrenceValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Recurrence
		wantErr bool
	}{
		{"daily needs nothing", Recurrence{Pattern: Daily}, false},
		{"weekly without weekdays", Recurrence{Pattern: Weekly}, true},
		{"weekly with weekdays", Recurrence{Pattern: Weekly, Weekdays: []time.Weekday{time.Friday}}, false},
		{"monthly without days", Recurrence{Pattern: Monthly}, true},
		{"monthly with days", Recurrence{Pattern: Monthly, MonthDays: []int{1, 15}}, false},
		{"monthly day out of range", Recurrence{Pattern: Monthly, MonthDays: []int{32}}, true},
		{"unknown pattern", Recurrence{Pattern: "YEARLY"}, true},
		{"weekdays on a daily rule", Recurrence{Pattern: Daily, Weekdays: []time.Weekday{time.Monday}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecurrenceRule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
