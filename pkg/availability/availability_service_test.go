package availability

import (
	"context"
	"testing"
	"time"

	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedOccurrences(perUser map[int][]event.Occurrence) OccurrencesProvider {
	return func(ctx context.Context, userIds []int, window interval.Interval) (map[int][]event.Occurrence, error) {
		result := make(map[int][]event.Occurrence, len(userIds))
		for _, userId := range userIds {
			result[userId] = perUser[userId]
		}
		return result, nil
	}
}

func at(h int) time.Time {
	return time.Date(2025, 6, 2, h, 0, 0, 0, time.UTC)
}

func occurrence(eventId int, title string, start, end time.Time) event.Occurrence {
	return event.Occurrence{EventID: eventId, Title: title, StartTime: start, EndTime: end}
}

func window(t *testing.T, from, to time.Time) interval.Interval {
	t.Helper()
	w, err := interval.New(from, to)
	require.NoError(t, err)
	return w
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()

	t.Run("no events leaves the whole window free", func(t *testing.T) {
		service := NewService(fixedOccurrences(nil))
		result, err := service.Availability(ctx, []int{1, 2}, window(t, at(9), at(17)))
		require.NoError(t, err)
		assert.Empty(t, result.Busy)
		require.Len(t, result.Free, 1)
		assert.Equal(t, at(9), result.Free[0].Start)
		assert.Equal(t, at(17), result.Free[0].End)
	})

	t.Run("overlapping busy intervals stay separate but free gaps use their union", func(t *testing.T) {
		service := NewService(fixedOccurrences(map[int][]event.Occurrence{
			1: {occurrence(10, "A", at(10), at(12))},
			2: {occurrence(20, "B", at(11), at(13))},
		}))
		result, err := service.Availability(ctx, []int{1, 2}, window(t, at(9), at(17)))
		require.NoError(t, err)

		require.Len(t, result.Busy, 2)
		assert.Equal(t, 1, result.Busy[0].UserID)
		assert.Equal(t, at(10), result.Busy[0].Start)
		assert.Equal(t, 2, result.Busy[1].UserID)
		assert.Equal(t, at(11), result.Busy[1].Start)

		require.Len(t, result.Free, 2)
		assert.Equal(t, FreeInterval{Start: at(9), End: at(10)}, result.Free[0])
		assert.Equal(t, FreeInterval{Start: at(13), End: at(17)}, result.Free[1])
	})

	t.Run("busy intervals are clipped to the window", func(t *testing.T) {
		service := NewService(fixedOccurrences(map[int][]event.Occurrence{
			1: {occurrence(10, "early", at(8), at(10)), occurrence(11, "late", at(16), at(19))},
		}))
		result, err := service.Availability(ctx, []int{1}, window(t, at(9), at(17)))
		require.NoError(t, err)

		require.Len(t, result.Busy, 2)
		assert.Equal(t, at(9), result.Busy[0].Start)
		assert.Equal(t, at(10), result.Busy[0].End)
		assert.Equal(t, at(16), result.Busy[1].Start)
		assert.Equal(t, at(17), result.Busy[1].End)

		require.Len(t, result.Free, 1)
		assert.Equal(t, FreeInterval{Start: at(10), End: at(16)}, result.Free[0])
	})

	t.Run("a fully booked window has no free intervals", func(t *testing.T) {
		service := NewService(fixedOccurrences(map[int][]event.Occurrence{
			1: {occurrence(10, "all day", at(8), at(18))},
		}))
		result, err := service.Availability(ctx, []int{1}, window(t, at(9), at(17)))
		require.NoError(t, err)
		assert.Empty(t, result.Free)
	})

	t.Run("touching busy intervals leave no gap between them", func(t *testing.T) {
		service := NewService(fixedOccurrences(map[int][]event.Occurrence{
			1: {occurrence(10, "first", at(10), at(11)), occurrence(11, "second", at(11), at(12))},
		}))
		result, err := service.Availability(ctx, []int{1}, window(t, at(9), at(17)))
		require.NoError(t, err)
		require.Len(t, result.Free, 2)
		assert.Equal(t, FreeInterval{Start: at(9), End: at(10)}, result.Free[0])
		assert.Equal(t, FreeInterval{Start: at(12), End: at(17)}, result.Free[1])
	})

	t.Run("duplicate user ids are queried once", func(t *testing.T) {
		service := NewService(fixedOccurrences(map[int][]event.Occurrence{
			1: {occurrence(10, "A", at(10), at(11))},
		}))
		result, err := service.Availability(ctx, []int{1, 1, 1}, window(t, at(9), at(17)))
		require.NoError(t, err)
		assert.Len(t, result.Busy, 1)
	})
}
