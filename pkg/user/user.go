package user

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserDataInvalid = errors.New("user data is invalid")
)

type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	PhotoUrl    string
	Settings    Settings
}

// Settings carries per-user preferences. Timezone is an IANA zone name and
// DefaultEventColour is the hex colour applied to events created without one.
type Settings struct {
	Timezone           string
	DefaultEventColour string
	GoogleCalendar     GoogleCalendarSettings
}

// GoogleCalendarSettings points at the external calendar occurrences are
// exported to, when the user connected a Google account.
type GoogleCalendarSettings struct {
	CalendarId string
}
