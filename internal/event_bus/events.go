package event_bus

import "time"

const (
	// EventTrashedType is published when an event is moved to the trash.
	EventTrashedType EventType = "calendar.event.trashed"
	// InviteRespondedType is published when an invitee accepts or declines.
	InviteRespondedType EventType = "invite.responded"
)

type EventTrashed struct {
	EventId   int
	OwnerId   int
	Title     string
	DeletedAt time.Time
}

type InviteResponded struct {
	InviteId  int
	EventId   int
	InviteeId int
	Status    string
}
