package invite

import (
	"context"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/internal/utils"
	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userContext(id int) context.Context {
	return user.WithUser(context.Background(), user.User{Id: id})
}

func eventsOwnedBy(ownerId int, eventIds ...int) EventProvider {
	return func(ctx context.Context, eventId int) (*event.Event, error) {
		for _, id := range eventIds {
			if id == eventId {
				return &event.Event{ID: eventId, UserID: ownerId, Title: "Dinner"}, nil
			}
		}
		return nil, nil
	}
}

func serviceForTest(provider EventProvider) (*ServiceImpl, *StubRepository, *event_bus.EventBus) {
	repo := &StubRepository{}
	bus := event_bus.NewEventBus()
	service := NewService(repo, provider, bus)
	service.clock = &utils.MockClock{FixedNow: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return service, repo, bus
}

func TestCreateInvite(t *testing.T) {
	service, _, _ := serviceForTest(eventsOwnedBy(1, 10))

	t.Run("owner can invite another user", func(t *testing.T) {
		invite, err := service.CreateInvite(userContext(1), 10, 2)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, invite.Status)
		assert.Equal(t, 1, invite.InviterID)
		assert.Equal(t, 2, invite.InviteeID)
	})

	t.Run("inviting the same user twice fails", func(t *testing.T) {
		_, err := service.CreateInvite(userContext(1), 10, 2)
		assert.ErrorIs(t, err, ErrDuplicateInvite)
	})

	t.Run("self invites are rejected", func(t *testing.T) {
		_, err := service.CreateInvite(userContext(1), 10, 1)
		assert.ErrorIs(t, err, ErrSelfInvite)
	})

	t.Run("only the owner can invite", func(t *testing.T) {
		_, err := service.CreateInvite(userContext(2), 10, 3)
		assert.ErrorIs(t, err, event.ErrNotOwner)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := service.CreateInvite(userContext(1), 99, 2)
		assert.ErrorIs(t, err, event.ErrEventNotFound)
	})
}

func TestRespond(t *testing.T) {
	newInvite := func(t *testing.T) (*ServiceImpl, Invite, *event_bus.EventBus) {
		t.Helper()
		service, _, bus := serviceForTest(eventsOwnedBy(1, 10))
		invite, err := service.CreateInvite(userContext(1), 10, 2)
		require.NoError(t, err)
		return service, invite, bus
	}

	t.Run("invitee accepts a pending invite", func(t *testing.T) {
		service, invite, bus := newInvite(t)

		var received event_bus.InviteResponded
		unsubscribe := event_bus.SubscribeTyped[event_bus.InviteResponded](bus, event_bus.InviteRespondedType,
			func(e event_bus.EventT[event_bus.InviteResponded]) error {
				received = e.Data
				return nil
			})
		defer unsubscribe()

		responded, err := service.Respond(userContext(2), invite.ID, StatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, responded.Status)
		assert.NotNil(t, responded.RespondedAt)
		assert.Equal(t, invite.ID, received.InviteId)
		assert.Equal(t, "ACCEPTED", received.Status)
	})

	t.Run("invitee can decline after accepting", func(t *testing.T) {
		service, invite, _ := newInvite(t)
		_, err := service.Respond(userContext(2), invite.ID, StatusAccepted)
		require.NoError(t, err)
		responded, err := service.Respond(userContext(2), invite.ID, StatusDeclined)
		require.NoError(t, err)
		assert.Equal(t, StatusDeclined, responded.Status)
	})

	t.Run("declined is terminal", func(t *testing.T) {
		service, invite, _ := newInvite(t)
		_, err := service.Respond(userContext(2), invite.ID, StatusDeclined)
		require.NoError(t, err)
		_, err = service.Respond(userContext(2), invite.ID, StatusAccepted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("only the invitee can respond", func(t *testing.T) {
		service, invite, _ := newInvite(t)
		_, err := service.Respond(userContext(1), invite.ID, StatusAccepted)
		assert.ErrorIs(t, err, ErrNotInvitee)
	})

	t.Run("cancelled cannot be the target of a response", func(t *testing.T) {
		service, invite, _ := newInvite(t)
		_, err := service.Respond(userContext(2), invite.ID, StatusCancelled)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown invite", func(t *testing.T) {
		service, _, _ := serviceForTest(eventsOwnedBy(1, 10))
		_, err := service.Respond(userContext(2), 123, StatusAccepted)
		assert.ErrorIs(t, err, ErrInviteNotFound)
	})
}

func TestCancel(t *testing.T) {
	service, _, _ := serviceForTest(eventsOwnedBy(1, 10))
	invite, err := service.CreateInvite(userContext(1), 10, 2)
	require.NoError(t, err)

	t.Run("only the inviter can cancel", func(t *testing.T) {
		_, err := service.Cancel(userContext(2), invite.ID)
		assert.ErrorIs(t, err, ErrNotInviter)
	})

	t.Run("inviter cancels a pending invite", func(t *testing.T) {
		cancelled, err := service.Cancel(userContext(1), invite.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		_, err := service.Cancel(userContext(1), invite.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTrashedEventCancelsOpenInvites(t *testing.T) {
	service, repo, bus := serviceForTest(eventsOwnedBy(1, 10))

	pending, err := service.CreateInvite(userContext(1), 10, 2)
	require.NoError(t, err)
	accepted, err := service.CreateInvite(userContext(1), 10, 3)
	require.NoError(t, err)
	_, err = service.Respond(userContext(3), accepted.ID, StatusAccepted)
	require.NoError(t, err)
	declined, err := service.CreateInvite(userContext(1), 10, 4)
	require.NoError(t, err)
	_, err = service.Respond(userContext(4), declined.ID, StatusDeclined)
	require.NoError(t, err)

	err = bus.Publish(event_bus.NewEvent(context.Background(), event_bus.EventTrashedType, event_bus.EventTrashed{
		EventId: 10,
		OwnerId: 1,
	}))
	require.NoError(t, err)

	byId := map[int]Status{}
	for _, invite := range repo.Invites {
		byId[invite.ID] = invite.Status
	}
	assert.Equal(t, StatusCancelled, byId[pending.ID])
	assert.Equal(t, StatusCancelled, byId[accepted.ID])
	assert.Equal(t, StatusDeclined, byId[declined.ID], "terminal invites are untouched")
}

func TestListForEvent(t *testing.T) {
	service, _, _ := serviceForTest(eventsOwnedBy(1, 10))
	_, err := service.CreateInvite(userContext(1), 10, 2)
	require.NoError(t, err)
	_, err = service.CreateInvite(userContext(1), 10, 3)
	require.NoError(t, err)

	t.Run("owner lists all invites", func(t *testing.T) {
		invites, err := service.ListForEvent(userContext(1), 10)
		require.NoError(t, err)
		assert.Len(t, invites, 2)
	})

	t.Run("non-owner cannot list", func(t *testing.T) {
		_, err := service.ListForEvent(userContext(2), 10)
		assert.ErrorIs(t, err, event.ErrNotOwner)
	})
}

func TestListForCurrentUser(t *testing.T) {
	service, _, _ := serviceForTest(eventsOwnedBy(1, 10))
	first, err := service.CreateInvite(userContext(1), 10, 2)
	require.NoError(t, err)
	_, err = service.Respond(userContext(2), first.ID, StatusDeclined)
	require.NoError(t, err)

	all, err := service.ListForCurrentUser(userContext(2), nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	pending := StatusPending
	none, err := service.ListForCurrentUser(userContext(2), &pending)
	require.NoError(t, err)
	assert.Empty(t, none)
}
