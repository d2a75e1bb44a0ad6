package availability

import (
	"cmp"
	"context"
	"slices"

	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/interval"
)

// OccurrencesProvider expands the events visible to each user into
// occurrences intersecting the window, keyed by user.
type OccurrencesProvider func(ctx context.Context, userIds []int, window interval.Interval) (map[int][]event.Occurrence, error)

type Service interface {
	Availability(ctx context.Context, userIds []int, window interval.Interval) (Availability, error)
}

type ServiceImpl struct {
	occurrences OccurrencesProvider
}

func NewService(occurrences OccurrencesProvider) *ServiceImpl {
	return &ServiceImpl{occurrences}
}

// Availability computes the busy intervals of the given users inside the
// window and the gaps where all of them are free. Busy intervals are sorted
// by start but never merged; free intervals are the complement of their
// union within the window.
func (s *ServiceImpl) Availability(ctx context.Context, userIds []int, window interval.Interval) (Availability, error) {
	perUser, err := s.occurrences(ctx, dedupe(userIds), window)
	if err != nil {
		return Availability{}, err
	}

	busy := make([]BusyInterval, 0, 20)
	for userId, occurrences := range perUser {
		for _, occurrence := range occurrences {
			start := occurrence.StartTime
			if start.Before(window.Start) {
				start = window.Start
			}
			end := occurrence.EndTime
			if end.After(window.End) {
				end = window.End
			}
			if !start.Before(end) {
				continue
			}
			busy = append(busy, BusyInterval{
				Start:   start,
				End:     end,
				UserID:  userId,
				EventID: occurrence.EventID,
				Title:   occurrence.Title,
			})
		}
	}
	slices.SortStableFunc(busy, func(a, b BusyInterval) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		if c := a.End.Compare(b.End); c != 0 {
			return c
		}
		if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
			return c
		}
		return cmp.Compare(a.EventID, b.EventID)
	})

	return Availability{Busy: busy, Free: freeGaps(busy, window)}, nil
}

// freeGaps sweeps a cursor across the window, jumping over the sorted busy
// intervals. Adjacent and overlapping busy stretches collapse into a single
// occupied region for the purpose of finding gaps.
func freeGaps(busy []BusyInterval, window interval.Interval) []FreeInterval {
	free := make([]FreeInterval, 0, len(busy)+1)
	cursor := window.Start
	for _, b := range busy {
		if b.Start.After(cursor) {
			free = append(free, FreeInterval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, FreeInterval{Start: cursor, End: window.End})
	}
	return free
}

func dedupe(userIds []int) []int {
	seen := make(map[int]struct{}, len(userIds))
	unique := make([]int, 0, len(userIds))
	for _, id := range userIds {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
