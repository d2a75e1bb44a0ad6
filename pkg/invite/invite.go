package invite

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an invite. PENDING can become ACCEPTED or
// DECLINED by the invitee; ACCEPTED can still be DECLINED later. The inviter
// can cancel a PENDING or ACCEPTED invite. DECLINED and CANCELLED are
// terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrInviteNotFound    = errors.New("invite not found")
	ErrSelfInvite        = errors.New("cannot invite yourself to your own event")
	ErrDuplicateInvite   = errors.New("user is already invited to this event")
	ErrInvalidTransition = errors.New("invite status transition not allowed")
	ErrNotInvitee        = errors.New("only the invited user can respond to an invite")
	ErrNotInviter        = errors.New("only the inviting user can cancel an invite")
)

// Invite links one event to one invited user. There is at most one invite per
// (event, invitee) pair.
type Invite struct {
	ID          int
	EventID     int
	InviterID   int
	InviteeID   int
	Status      Status
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// canTransition encodes the invitee-side status machine.
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusAccepted || to == StatusDeclined || to == StatusCancelled
	case StatusAccepted:
		return to == StatusDeclined || to == StatusCancelled
	default:
		return false
	}
}
