package event

import (
	"slices"
	"time"

	"github.com/gatherly/gatherly/pkg/interval"
)

// Iteration caps bound expansion of unterminated recurrences. Exceeding a cap
// truncates the result silently; it is a policy decision, not a failure.
const (
	DefaultMaxWeeklySteps  = 104
	DefaultMaxMonthlySteps = 24
)

// Expander turns a stored event plus its optional recurrence into the
// concrete occurrences intersecting a query window. All generated instances
// keep the anchor time-of-day and the duration of the base event; the base
// event is never mutated.
type Expander struct {
	MaxWeeklySteps  int
	MaxMonthlySteps int
}

func NewExpander() *Expander {
	return &Expander{
		MaxWeeklySteps:  DefaultMaxWeeklySteps,
		MaxMonthlySteps: DefaultMaxMonthlySteps,
	}
}

// Expand returns the occurrences of e whose start instant falls inside the
// half-open window [windowStart, windowEnd), ordered ascending by start.
// A recurrence end boundary is inclusive: an occurrence starting exactly at
// Recurrence.EndAt is still emitted. A non-recurring event yields itself iff
// its interval overlaps the window.
func (x *Expander) Expand(e Event, windowStart, windowEnd time.Time) ([]Occurrence, error) {
	window, err := interval.New(windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	if _, err := interval.New(e.StartTime, e.EndTime); err != nil {
		return nil, ErrEndBeforeStart
	}

	if e.Recurrence == nil {
		if window.Overlaps(interval.Interval{Start: e.StartTime, End: e.EndTime}) {
			return []Occurrence{e.occurrence(e.StartTime, e.EndTime)}, nil
		}
		return nil, nil
	}

	// The rule may begin stepping from an earlier boundary (the Sunday of a
	// week, the first of a month); only occurrences whose own start is within
	// the window and the recurrence end boundary are emitted.
	effectiveStart := e.StartTime
	if windowStart.After(effectiveStart) {
		effectiveStart = windowStart
	}

	bounds := expandBounds{
		windowStart: windowStart,
		windowEnd:   windowEnd,
		recEnd:      e.Recurrence.EndAt,
	}

	switch e.Recurrence.Pattern {
	case Daily:
		return x.expandDaily(e, effectiveStart, bounds), nil
	case Weekly:
		return x.expandWeekly(e, effectiveStart, bounds), nil
	case Monthly:
		return x.expandMonthly(e, effectiveStart, bounds), nil
	default:
		return nil, ErrInvalidRecurrenceRule
	}
}

type expandBounds struct {
	windowStart time.Time
	windowEnd   time.Time
	recEnd      *time.Time
}

// include reports whether an occurrence starting at t belongs to the result.
func (b expandBounds) include(t time.Time) bool {
	if t.Before(b.windowStart) || !t.Before(b.windowEnd) {
		return false
	}
	if b.recEnd != nil && t.After(*b.recEnd) {
		return false
	}
	return true
}

// exhausted reports whether stepping has moved past every includable start.
func (b expandBounds) exhausted(t time.Time) bool {
	if !t.Before(b.windowEnd) {
		return true
	}
	return b.recEnd != nil && t.After(*b.recEnd)
}

func (x *Expander) expandDaily(e Event, effectiveStart time.Time, bounds expandBounds) []Occurrence {
	duration := e.EndTime.Sub(e.StartTime)
	var occurrences []Occurrence

	day := atAnchorTime(effectiveStart, e.StartTime)
	for !bounds.exhausted(day) {
		if bounds.include(day) {
			occurrences = append(occurrences, e.occurrence(day, day.Add(duration)))
		}
		day = day.AddDate(0, 0, 1)
	}
	return occurrences
}

func (x *Expander) expandWeekly(e Event, effectiveStart time.Time, bounds expandBounds) []Occurrence {
	duration := e.EndTime.Sub(e.StartTime)
	weekdays := slices.Clone(e.Recurrence.Weekdays)
	slices.Sort(weekdays)

	// Weeks are anchored on the Sunday of the week containing the effective
	// start, in the anchor's location, so configured weekday offsets
	// (0=Sunday..6=Saturday) address days within each week directly. The
	// weekday must be read in that location too: around local midnight the
	// window's zone can sit on a different calendar day.
	start := effectiveStart.In(e.StartTime.Location())
	sunday := atAnchorTime(start.AddDate(0, 0, -int(start.Weekday())), e.StartTime)

	var occurrences []Occurrence
	for step := 0; step < x.MaxWeeklySteps; step++ {
		weekStart := sunday.AddDate(0, 0, 7*step)
		if bounds.exhausted(weekStart) {
			break
		}
		for _, weekday := range weekdays {
			occStart := weekStart.AddDate(0, 0, int(weekday))
			if !bounds.include(occStart) {
				continue
			}
			occurrences = append(occurrences, e.occurrence(occStart, occStart.Add(duration)))
		}
	}
	return occurrences
}

func (x *Expander) expandMonthly(e Event, effectiveStart time.Time, bounds expandBounds) []Occurrence {
	duration := e.EndTime.Sub(e.StartTime)
	monthDays := slices.Clone(e.Recurrence.MonthDays)
	slices.Sort(monthDays)

	loc := e.StartTime.Location()
	start := effectiveStart.In(loc)
	firstOfMonth := atAnchorTime(time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, loc), e.StartTime)

	var occurrences []Occurrence
	for step := 0; step < x.MaxMonthlySteps; step++ {
		monthStart := firstOfMonth.AddDate(0, step, 0)
		if bounds.exhausted(monthStart) {
			break
		}
		for _, monthDay := range monthDays {
			// Days absent from this month (e.g. 30 in February) are skipped
			// silently rather than rolling over.
			if monthDay > daysInMonth(monthStart.Year(), monthStart.Month()) {
				continue
			}
			occStart := monthStart.AddDate(0, 0, monthDay-1)
			if !bounds.include(occStart) {
				continue
			}
			occurrences = append(occurrences, e.occurrence(occStart, occStart.Add(duration)))
		}
	}
	return occurrences
}

// atAnchorTime places t's calendar date at the time-of-day of the anchor
// instant, in the anchor's location.
func atAnchorTime(t time.Time, anchor time.Time) time.Time {
	loc := anchor.Location()
	day := t.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(),
		anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), loc)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
