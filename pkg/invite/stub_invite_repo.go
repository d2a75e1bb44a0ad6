package invite

import (
	"context"
	"time"
)

// StubRepository is an in-memory Repository used by service tests.
type StubRepository struct {
	Invites []Invite
	nextId  int
}

func (s *StubRepository) StoreInvite(ctx context.Context, invite Invite) (Invite, error) {
	s.nextId++
	invite.ID = s.nextId
	invite.CreatedAt = time.Now()
	s.Invites = append(s.Invites, invite)
	return invite, nil
}

func (s *StubRepository) FindInvite(ctx context.Context, id int) (*Invite, error) {
	for i := range s.Invites {
		if s.Invites[i].ID == id {
			invite := s.Invites[i]
			return &invite, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) FindByEventAndInvitee(ctx context.Context, eventId, inviteeId int) (*Invite, error) {
	for i := range s.Invites {
		if s.Invites[i].EventID == eventId && s.Invites[i].InviteeID == inviteeId {
			invite := s.Invites[i]
			return &invite, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) FindForEvent(ctx context.Context, eventId int) ([]Invite, error) {
	var invites []Invite
	for _, invite := range s.Invites {
		if invite.EventID == eventId {
			invites = append(invites, invite)
		}
	}
	return invites, nil
}

func (s *StubRepository) FindForInvitee(ctx context.Context, inviteeId int, status *Status) ([]Invite, error) {
	var invites []Invite
	for _, invite := range s.Invites {
		if invite.InviteeID != inviteeId {
			continue
		}
		if status != nil && invite.Status != *status {
			continue
		}
		invites = append(invites, invite)
	}
	return invites, nil
}

func (s *StubRepository) UpdateStatus(ctx context.Context, id int, status Status, respondedAt time.Time) error {
	for i := range s.Invites {
		if s.Invites[i].ID == id {
			s.Invites[i].Status = status
			at := respondedAt
			s.Invites[i].RespondedAt = &at
			return nil
		}
	}
	return ErrInviteNotFound
}

func (s *StubRepository) CancelOpenInvitesForEvent(ctx context.Context, eventId int) (int, error) {
	cancelled := 0
	for i := range s.Invites {
		if s.Invites[i].EventID != eventId {
			continue
		}
		if s.Invites[i].Status == StatusPending || s.Invites[i].Status == StatusAccepted {
			s.Invites[i].Status = StatusCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

func (s *StubRepository) Cleanup() {
	s.Invites = []Invite{}
	s.nextId = 0
}
