package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	exported int
	imported int
	err      error
	from     time.Time
	to       time.Time
}

func (s *stubService) GetCalendar(context.Context, string) (*Calendar, error) {
	return nil, s.err
}

func (s *stubService) ListCalendars(context.Context) ([]CalendarItem, error) {
	return nil, s.err
}

func (s *stubService) ExportEvents(_ context.Context, from time.Time, to time.Time) (int, error) {
	s.from, s.to = from, to
	return s.exported, s.err
}

func (s *stubService) ImportEvents(_ context.Context, from time.Time, to time.Time) (int, error) {
	s.from, s.to = from, to
	return s.imported, s.err
}

func TestHandler_ImportEvents(t *testing.T) {
	t.Run("returns the imported count", func(t *testing.T) {
		service := &stubService{imported: 3}
		handler := NewHandler(service)

		req := httptest.NewRequest("POST",
			"/api/integrations/google/import?from=2025-06-01T00:00:00Z&to=2025-06-08T00:00:00Z", nil)
		rec := httptest.NewRecorder()
		handler.ImportEvents(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var result ImportResultDto
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, 3, result.Imported)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), service.from)
		assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), service.to)
	})

	t.Run("rejects a malformed window", func(t *testing.T) {
		handler := NewHandler(&stubService{})
		req := httptest.NewRequest("POST",
			"/api/integrations/google/import?from=yesterday&to=2025-06-08T00:00:00Z", nil)
		rec := httptest.NewRecorder()
		handler.ImportEvents(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated users get 403", func(t *testing.T) {
		handler := NewHandler(&stubService{err: ErrUnathenticated})
		req := httptest.NewRequest("POST",
			"/api/integrations/google/import?from=2025-06-01T00:00:00Z&to=2025-06-08T00:00:00Z", nil)
		rec := httptest.NewRecorder()
		handler.ImportEvents(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing calendar configuration gets 409", func(t *testing.T) {
		handler := NewHandler(&stubService{err: ErrNoCalendarConfigured})
		req := httptest.NewRequest("POST",
			"/api/integrations/google/import?from=2025-06-01T00:00:00Z&to=2025-06-08T00:00:00Z", nil)
		rec := httptest.NewRecorder()
		handler.ImportEvents(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandler_ExportEvents(t *testing.T) {
	t.Run("returns the exported count", func(t *testing.T) {
		service := &stubService{exported: 5}
		handler := NewHandler(service)

		req := httptest.NewRequest("POST",
			"/api/integrations/google/export?from=2025-06-01T00:00:00Z&to=2025-06-08T00:00:00Z", nil)
		rec := httptest.NewRecorder()
		handler.ExportEvents(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var result ExportResultDto
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, 5, result.Exported)
	})

	t.Run("rejects a malformed window", func(t *testing.T) {
		handler := NewHandler(&stubService{})
		req := httptest.NewRequest("POST",
			"/api/integrations/google/export?from=2025-06-01T00:00:00Z&to=someday", nil)
		rec := httptest.NewRecorder()
		handler.ExportEvents(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
