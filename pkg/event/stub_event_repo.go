package event

import (
	"context"
	"time"
)

// StubRepository is an in-memory Repository used by service tests.
type StubRepository struct {
	Events []Event
	nextId int
}

func (s *StubRepository) StoreEvent(ctx context.Context, event Event) (Event, error) {
	s.nextId++
	event.ID = s.nextId
	s.Events = append(s.Events, event)
	return event, nil
}

func (s *StubRepository) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	for i, existing := range s.Events {
		if existing.ID == event.ID && existing.DeletedAt == nil {
			event.DeletedAt = nil
			s.Events[i] = event
			return event, nil
		}
	}
	return Event{}, ErrEventNotFound
}

func (s *StubRepository) FindEvent(ctx context.Context, id int) (*Event, error) {
	event, err := s.FindEventIncludingDeleted(ctx, id)
	if err != nil || event == nil || event.DeletedAt != nil {
		return nil, err
	}
	return event, nil
}

func (s *StubRepository) FindEventIncludingDeleted(ctx context.Context, id int) (*Event, error) {
	for i := range s.Events {
		if s.Events[i].ID == id {
			event := s.Events[i]
			return &event, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) FindEventsForUsersInRange(ctx context.Context, userIds []int, from, to time.Time) ([]VisibleEvent, error) {
	var visible []VisibleEvent
	for _, userId := range userIds {
		for _, event := range s.Events {
			if event.UserID != userId || event.DeletedAt != nil {
				continue
			}
			if !event.StartTime.Before(to) {
				continue
			}
			if event.Recurrence == nil && !event.EndTime.After(from) {
				continue
			}
			if event.Recurrence != nil && event.Recurrence.EndAt != nil && event.Recurrence.EndAt.Before(from) {
				continue
			}
			visible = append(visible, VisibleEvent{UserID: userId, Event: event})
		}
	}
	return visible, nil
}

func (s *StubRepository) FindDeletedEvents(ctx context.Context, userId int) ([]Event, error) {
	var events []Event
	for _, event := range s.Events {
		if event.UserID == userId && event.DeletedAt != nil {
			events = append(events, event)
		}
	}
	return events, nil
}

func (s *StubRepository) MarkDeleted(ctx context.Context, id int, at time.Time) error {
	for i := range s.Events {
		if s.Events[i].ID == id && s.Events[i].DeletedAt == nil {
			deletedAt := at
			s.Events[i].DeletedAt = &deletedAt
			return nil
		}
	}
	return ErrEventNotFound
}

func (s *StubRepository) ClearDeleted(ctx context.Context, id int) error {
	for i := range s.Events {
		if s.Events[i].ID == id && s.Events[i].DeletedAt != nil {
			s.Events[i].DeletedAt = nil
			return nil
		}
	}
	return ErrEventNotFound
}

func (s *StubRepository) DeleteEventPermanently(ctx context.Context, id int) error {
	for i := range s.Events {
		if s.Events[i].ID == id {
			s.Events = append(s.Events[:i], s.Events[i+1:]...)
			return nil
		}
	}
	return ErrEventNotFound
}

func (s *StubRepository) Cleanup() {
	s.Events = []Event{}
	s.nextId = 0
}
