package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pattern identifies how an event repeats.
type Pattern string

const (
	Daily   Pattern = "DAILY"
	Weekly  Pattern = "WEEKLY"
	Monthly Pattern = "MONTHLY"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrNotOwner              = errors.New("event does not belong to the current user")
	ErrInvalidRecurrenceRule = errors.New("invalid recurrence rule")
	ErrAlreadyDeleted        = errors.New("event is already deleted")
	ErrNotDeleted            = errors.New("event is not deleted")
	ErrRestoreWindowExpired  = errors.New("cannot restore event deleted more than 30 days ago")
	ErrRetentionNotElapsed   = errors.New("cannot permanently delete event deleted less than 30 days ago")
	ErrMissingTitle          = errors.New("event title is required")
	ErrEndBeforeStart        = errors.New("event end time must be after start time")
)

// DefaultColour is applied when an event is created without a display colour.
const DefaultColour = "#0000af"

// Recurrence describes a repeating pattern owned by exactly one event.
// The anchor start instant (time-of-day and phase) is the owning event's
// StartTime. It is replaced wholesale whenever the owning event is edited.
type Recurrence struct {
	Pattern Pattern
	// EndAt bounds generation; occurrences starting after it are never emitted.
	EndAt *time.Time
	// Weekdays is required and non-empty iff Pattern is Weekly. 0 = Sunday.
	Weekdays []time.Weekday
	// MonthDays is required and non-empty iff Pattern is Monthly (1-31).
	MonthDays []int
}

// Event is an owned calendar record, optionally recurring.
type Event struct {
	ID          int
	UID         uuid.UUID
	UserID      int
	Title       string
	Description string
	Colour      string
	StartTime   time.Time
	EndTime     time.Time
	DeletedAt   *time.Time
	Recurrence  *Recurrence
}

// Occurrence is a derived, never persisted projection of an event: the same
// identity and display fields with one computed start/end pair per instance.
type Occurrence struct {
	EventID     int
	EventUID    uuid.UUID
	UserID      int
	Title       string
	Description string
	Colour      string
	StartTime   time.Time
	EndTime     time.Time
	Recurring   bool
}

// Validate checks event fields and the recurrence rule shape. It is called at
// creation and update time, before any expansion is ever attempted.
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrMissingTitle
	}
	if !e.EndTime.After(e.StartTime) {
		return ErrEndBeforeStart
	}
	if e.Recurrence != nil {
		return e.Recurrence.Validate()
	}
	return nil
}

func (r *Recurrence) Validate() error {
	switch r.Pattern {
	case Daily:
		// no pattern-specific fields
	case Weekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: weekly pattern requires at least one weekday", ErrInvalidRecurrenceRule)
		}
		for _, d := range r.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRecurrenceRule, d)
			}
		}
	case Monthly:
		if len(r.MonthDays) == 0 {
			return fmt.Errorf("%w: monthly pattern requires at least one day of month", ErrInvalidRecurrenceRule)
		}
		for _, d := range r.MonthDays {
			if d < 1 || d > 31 {
				return fmt.Errorf("%w: day of month %d out of range", ErrInvalidRecurrenceRule, d)
			}
		}
	default:
		return fmt.Errorf("%w: unknown pattern %q", ErrInvalidRecurrenceRule, r.Pattern)
	}
	if r.Pattern != Weekly && len(r.Weekdays) > 0 {
		return fmt.Errorf("%w: weekdays are only valid for the weekly pattern", ErrInvalidRecurrenceRule)
	}
	if r.Pattern != Monthly && len(r.MonthDays) > 0 {
		return fmt.Errorf("%w: month days are only valid for the monthly pattern", ErrInvalidRecurrenceRule)
	}
	return nil
}

func (e *Event) occurrence(start, end time.Time) Occurrence {
	return Occurrence{
		EventID:     e.ID,
		EventUID:    e.UID,
		UserID:      e.UserID,
		Title:       e.Title,
		Description: e.Description,
		Colour:      e.Colour,
		StartTime:   start,
		EndTime:     end,
		Recurring:   e.Recurrence != nil,
	}
}
