package invite

import (
	"context"
	"fmt"

	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/internal/utils"
	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/user"
	log "github.com/sirupsen/logrus"
)

// EventProvider looks up a live (non-trashed) event by id. It returns nil
// when no such event exists.
type EventProvider func(ctx context.Context, eventId int) (*event.Event, error)

type Service interface {
	CreateInvite(ctx context.Context, eventId, inviteeId int) (Invite, error)
	Respond(ctx context.Context, inviteId int, status Status) (Invite, error)
	Cancel(ctx context.Context, inviteId int) (Invite, error)
	ListForEvent(ctx context.Context, eventId int) ([]Invite, error)
	ListForCurrentUser(ctx context.Context, status *Status) ([]Invite, error)
}

type ServiceImpl struct {
	repo          Repository
	eventProvider EventProvider
	bus           *event_bus.EventBus
	clock         utils.Clock
}

// NewService wires the invite service and subscribes it to event trash
// notifications, so trashing an event cancels its open invites.
func NewService(repo Repository, eventProvider EventProvider, bus *event_bus.EventBus) *ServiceImpl {
	s := &ServiceImpl{repo, eventProvider, bus, &utils.SystemClock{}}
	event_bus.SubscribeTyped[event_bus.EventTrashed](bus, event_bus.EventTrashedType,
		func(e event_bus.EventT[event_bus.EventTrashed]) error {
			cancelled, err := s.repo.CancelOpenInvitesForEvent(e.Context(), e.Data.EventId)
			if err != nil {
				return err
			}
			if cancelled > 0 {
				log.Infof("Cancelled %d open invite(s) for trashed event %d", cancelled, e.Data.EventId)
			}
			return nil
		})
	return s
}

// CreateInvite invites another user to an event owned by the current user.
func (s *ServiceImpl) CreateInvite(ctx context.Context, eventId, inviteeId int) (Invite, error) {
	inviterId, err := user.CurrentId(ctx)
	if err != nil {
		return Invite{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if inviteeId == inviterId {
		return Invite{}, ErrSelfInvite
	}

	invitedEvent, err := s.eventProvider(ctx, eventId)
	if err != nil {
		return Invite{}, err
	}
	if invitedEvent == nil {
		return Invite{}, event.ErrEventNotFound
	}
	if invitedEvent.UserID != inviterId {
		return Invite{}, event.ErrNotOwner
	}

	existing, err := s.repo.FindByEventAndInvitee(ctx, eventId, inviteeId)
	if err != nil {
		return Invite{}, err
	}
	if existing != nil {
		return Invite{}, ErrDuplicateInvite
	}

	return s.repo.StoreInvite(ctx, Invite{
		EventID:   eventId,
		InviterID: inviterId,
		InviteeID: inviteeId,
		Status:    StatusPending,
	})
}

// Respond lets the invitee accept or decline. Accepting is only possible
// while the invite is pending; declining also works after acceptance.
func (s *ServiceImpl) Respond(ctx context.Context, inviteId int, status Status) (Invite, error) {
	if status != StatusAccepted && status != StatusDeclined {
		return Invite{}, ErrInvalidTransition
	}
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Invite{}, fmt.Errorf("failed to get current user: %w", err)
	}

	invite, err := s.repo.FindInvite(ctx, inviteId)
	if err != nil {
		return Invite{}, err
	}
	if invite == nil {
		return Invite{}, ErrInviteNotFound
	}
	if invite.InviteeID != userId {
		return Invite{}, ErrNotInvitee
	}
	if !canTransition(invite.Status, status) {
		return Invite{}, ErrInvalidTransition
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, inviteId, status, now); err != nil {
		return Invite{}, err
	}
	invite.Status = status
	invite.RespondedAt = &now

	busEvent := event_bus.NewEvent(ctx, event_bus.InviteRespondedType, event_bus.InviteResponded{
		InviteId:  invite.ID,
		EventId:   invite.EventID,
		InviteeId: invite.InviteeID,
		Status:    string(status),
	})
	if err := s.bus.Publish(busEvent); err != nil {
		log.Errorf("failed to notify about invite %d response: %v", inviteId, err)
	}
	return *invite, nil
}

// Cancel lets the inviter withdraw a pending or accepted invite.
func (s *ServiceImpl) Cancel(ctx context.Context, inviteId int) (Invite, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Invite{}, fmt.Errorf("failed to get current user: %w", err)
	}

	invite, err := s.repo.FindInvite(ctx, inviteId)
	if err != nil {
		return Invite{}, err
	}
	if invite == nil {
		return Invite{}, ErrInviteNotFound
	}
	if invite.InviterID != userId {
		return Invite{}, ErrNotInviter
	}
	if !canTransition(invite.Status, StatusCancelled) {
		return Invite{}, ErrInvalidTransition
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, inviteId, StatusCancelled, now); err != nil {
		return Invite{}, err
	}
	invite.Status = StatusCancelled
	invite.RespondedAt = &now
	return *invite, nil
}

// ListForEvent returns all invites of an event the current user owns.
func (s *ServiceImpl) ListForEvent(ctx context.Context, eventId int) ([]Invite, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	invitedEvent, err := s.eventProvider(ctx, eventId)
	if err != nil {
		return nil, err
	}
	if invitedEvent == nil {
		return nil, event.ErrEventNotFound
	}
	if invitedEvent.UserID != userId {
		return nil, event.ErrNotOwner
	}
	return s.repo.FindForEvent(ctx, eventId)
}

func (s *ServiceImpl) ListForCurrentUser(ctx context.Context, status *Status) ([]Invite, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindForInvitee(ctx, userId, status)
}
