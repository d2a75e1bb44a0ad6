package event

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/internal/utils"
	"github.com/gatherly/gatherly/pkg/interval"
	"github.com/gatherly/gatherly/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TrashRetention is how long a trashed event stays restorable. Restoring is
// possible only before it elapses, permanent deletion only after.
const TrashRetention = 30 * 24 * time.Hour

type Service interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, id int) (Event, error)
	EventsForUser(ctx context.Context, from, to *time.Time) ([]Occurrence, error)
	EventsForUsers(ctx context.Context, userIds []int, window interval.Interval) (map[int][]Occurrence, error)
	TrashEvent(ctx context.Context, id int) error
	ListTrash(ctx context.Context) ([]Event, error)
	RestoreEvent(ctx context.Context, id int) error
	DeleteEventPermanently(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo     Repository
	expander *Expander
	bus      *event_bus.EventBus
	clock    utils.Clock
}

func NewService(repo Repository, bus *event_bus.EventBus) *ServiceImpl {
	s := &ServiceImpl{repo, NewExpander(), bus, &utils.SystemClock{}}
	event_bus.SubscribeTyped(bus, event_bus.InviteRespondedType, s.onInviteResponded)
	return s
}

// onInviteResponded records invite responses in the server log so attendance
// changes on an event can be traced back to the responding user.
func (s *ServiceImpl) onInviteResponded(e event_bus.EventT[event_bus.InviteResponded]) error {
	log.Infof("Invite %d for event %d marked %s by user %d",
		e.Data.InviteId, e.Data.EventId, e.Data.Status, e.Data.InviteeId)
	return nil
}

func (s *ServiceImpl) CreateEvent(ctx context.Context, event Event) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}
	event.UserID = userId
	event.UID = uuid.New()
	event.DeletedAt = nil
	if event.Colour == "" {
		event.Colour = fallbackColour(ctx)
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return s.repo.StoreEvent(ctx, event)
}

// UpdateEvent edits an owned event. The recurrence rule on the incoming event
// replaces the stored one wholesale, including removing it when absent.
func (s *ServiceImpl) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	existing, err := s.ownedEvent(ctx, event.ID)
	if err != nil {
		return Event{}, err
	}
	if existing.DeletedAt != nil {
		return Event{}, ErrEventNotFound
	}
	event.UID = existing.UID
	event.UserID = existing.UserID
	if event.Colour == "" {
		event.Colour = fallbackColour(ctx)
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return s.repo.UpdateEvent(ctx, event)
}

// fallbackColour is the current user's configured default event colour, or
// the package default when the setting is unset.
func fallbackColour(ctx context.Context) string {
	if u, err := user.CurrentUser(ctx); err == nil && u.Settings.DefaultEventColour != "" {
		return u.Settings.DefaultEventColour
	}
	return DefaultColour
}

func (s *ServiceImpl) GetEvent(ctx context.Context, id int) (Event, error) {
	event, err := s.ownedEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if event.DeletedAt != nil {
		return Event{}, ErrEventNotFound
	}
	return *event, nil
}

// EventsForUser expands the current user's visible events (owned plus
// accepted invites) into occurrences within [from, to). A nil boundary falls
// back to the default window of two years starting now.
func (s *ServiceImpl) EventsForUser(ctx context.Context, from, to *time.Time) ([]Occurrence, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	now := s.clock.Now()
	start := now
	if from != nil {
		start = *from
	}
	end := start.AddDate(2, 0, 0)
	if to != nil {
		end = *to
	}
	window, err := interval.New(start, end)
	if err != nil {
		return nil, err
	}

	perUser, err := s.EventsForUsers(ctx, []int{userId}, window)
	if err != nil {
		return nil, err
	}
	return perUser[userId], nil
}

// EventsForUsers expands every event visible to each requested user into
// occurrences intersecting the window, keyed by user. Users with nothing in
// the window map to an empty slice.
func (s *ServiceImpl) EventsForUsers(ctx context.Context, userIds []int, window interval.Interval) (map[int][]Occurrence, error) {
	visible, err := s.repo.FindEventsForUsersInRange(ctx, userIds, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	perUser := make(map[int][]Occurrence, len(userIds))
	for _, userId := range userIds {
		perUser[userId] = []Occurrence{}
	}
	for _, v := range visible {
		occurrences, err := s.expander.Expand(v.Event, window.Start, window.End)
		if err != nil {
			log.Errorf("failed to expand event %d: %v", v.Event.ID, err)
			return nil, err
		}
		perUser[v.UserID] = append(perUser[v.UserID], occurrences...)
	}
	for userId := range perUser {
		slices.SortStableFunc(perUser[userId], func(a, b Occurrence) int {
			if c := a.StartTime.Compare(b.StartTime); c != 0 {
				return c
			}
			return cmp.Compare(a.EventID, b.EventID)
		})
	}
	return perUser, nil
}

func (s *ServiceImpl) TrashEvent(ctx context.Context, id int) error {
	event, err := s.ownedEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.DeletedAt != nil {
		return ErrAlreadyDeleted
	}
	now := s.clock.Now()
	if err := s.repo.MarkDeleted(ctx, id, now); err != nil {
		return err
	}

	busEvent := event_bus.NewEvent(ctx, event_bus.EventTrashedType, event_bus.EventTrashed{
		EventId:   event.ID,
		OwnerId:   event.UserID,
		Title:     event.Title,
		DeletedAt: now,
	})
	if err := s.bus.Publish(busEvent); err != nil {
		log.Errorf("failed to notify about trashed event %d: %v", id, err)
	}
	return nil
}

func (s *ServiceImpl) ListTrash(ctx context.Context) ([]Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindDeletedEvents(ctx, userId)
}

func (s *ServiceImpl) RestoreEvent(ctx context.Context, id int) error {
	event, err := s.ownedEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.DeletedAt == nil {
		return ErrNotDeleted
	}
	if s.clock.Now().Sub(*event.DeletedAt) > TrashRetention {
		return ErrRestoreWindowExpired
	}
	return s.repo.ClearDeleted(ctx, id)
}

func (s *ServiceImpl) DeleteEventPermanently(ctx context.Context, id int) error {
	event, err := s.ownedEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.DeletedAt == nil {
		return ErrNotDeleted
	}
	if s.clock.Now().Sub(*event.DeletedAt) < TrashRetention {
		return ErrRetentionNotElapsed
	}
	return s.repo.DeleteEventPermanently(ctx, id)
}

// ownedEvent loads an event in any trash state and verifies the current user
// owns it.
func (s *ServiceImpl) ownedEvent(ctx context.Context, id int) (*Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	event, err := s.repo.FindEventIncludingDeleted(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if event.UserID != userId {
		return nil, ErrNotOwner
	}
	return event, nil
}
