package availability

import (
	"time"
)

// BusyInterval is one occupied stretch of a user's calendar, clipped to the
// queried window. Overlapping intervals are reported as-is, one per
// occurrence, so callers can tell which event occupies which user.
type BusyInterval struct {
	Start   time.Time
	End     time.Time
	UserID  int
	EventID int
	Title   string
}

// FreeInterval is a stretch of the window where none of the queried users is
// busy.
type FreeInterval struct {
	Start time.Time
	End   time.Time
}

// Availability is the combined free/busy picture for a set of users over one
// query window.
type Availability struct {
	Busy []BusyInterval
	Free []FreeInterval
}
