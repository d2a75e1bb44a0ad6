package availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest() *Handler {
	provider := fixedOccurrences(map[int][]event.Occurrence{
		1: {occurrence(10, "Standup", at(10), at(11))},
	})
	return NewHandler(NewService(provider))
}

func TestGetAvailability(t *testing.T) {
	handler := setupHandlerTest()

	t.Run("returns busy and free intervals", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/availability?userIds=1,2&from=2025-06-02T09:00:00Z&to=2025-06-02T17:00:00Z", nil)
		w := httptest.NewRecorder()

		handler.GetAvailability(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response AvailabilityDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.Len(t, response.Busy, 1)
		assert.Equal(t, 1, response.Busy[0].UserId)
		assert.Equal(t, "Standup", response.Busy[0].Title)
		require.Len(t, response.Free, 2)
		assert.Equal(t, "2025-06-02T09:00:00Z", response.Free[0].Start)
	})

	t.Run("missing userIds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/availability?from=2025-06-02T09:00:00Z&to=2025-06-02T17:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetAvailability(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed userIds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/availability?userIds=1,x&from=2025-06-02T09:00:00Z&to=2025-06-02T17:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetAvailability(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing window boundary", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/availability?userIds=1&from=2025-06-02T09:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetAvailability(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid time format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/availability?userIds=1&from=yesterday&to=2025-06-02T17:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetAvailability(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var errResponse struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
		assert.Contains(t, errResponse.Details, "RFC3339")
	})

	t.Run("inverted window", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/availability?userIds=1&from=2025-06-02T17:00:00Z&to=2025-06-02T09:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetAvailability(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("window end exclusive for expansion", func(t *testing.T) {
		// Provider deriving occurrences from the window keeps the handler
		// honest about passing the parsed boundaries through.
		provider := func(ctx context.Context, userIds []int, w interval.Interval) (map[int][]event.Occurrence, error) {
			return map[int][]event.Occurrence{
				userIds[0]: {occurrence(1, "edge", w.End.Add(-time.Hour), w.End.Add(time.Hour))},
			}, nil
		}
		handler := NewHandler(NewService(provider))

		req := httptest.NewRequest(http.MethodGet,
			"/availability?userIds=1&from=2025-06-02T09:00:00Z&to=2025-06-02T17:00:00Z", nil)
		w := httptest.NewRecorder()
		handler.GetAvailability(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response AvailabilityDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.Len(t, response.Busy, 1)
		assert.Equal(t, "2025-06-02T17:00:00Z", response.Busy[0].End, "busy clipped at window end")
	})
}
