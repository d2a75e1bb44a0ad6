package google

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatherly/gatherly/internal/rest"
)

type CalendarItemDto struct {
	Id      string `json:"id"`
	Summary string `json:"summary"`
}

type ExportResultDto struct {
	Exported int `json:"exported"`
}

type ImportResultDto struct {
	Imported int `json:"imported"`
}

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s}
}

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	calendars, err := h.service.ListCalendars(r.Context())
	if err != nil {
		if errors.Is(err, ErrUnathenticated) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	calendarItems := make([]CalendarItemDto, 0, len(calendars))
	for _, c := range calendars {
		calendarItems = append(calendarItems, toCalendarItemDto(c))
	}

	if err := json.NewEncoder(w).Encode(calendarItems); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	from, to, ok := timeWindow(w, r)
	if !ok {
		return
	}

	exported, err := h.service.ExportEvents(r.Context(), from, to)
	if err != nil {
		writeSyncError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ExportResultDto{Exported: exported}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) ImportEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	from, to, ok := timeWindow(w, r)
	if !ok {
		return
	}

	imported, err := h.service.ImportEvents(r.Context(), from, to)
	if err != nil {
		writeSyncError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ImportResultDto{Imported: imported}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// timeWindow parses the required from/to query parameters, writing a 400
// response on failure.
func timeWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "from must be an RFC3339 timestamp"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "to must be an RFC3339 timestamp"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnathenticated):
		w.WriteHeader(http.StatusForbidden)
	case errors.Is(err, ErrNoCalendarConfigured):
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func toCalendarItemDto(ci CalendarItem) CalendarItemDto {
	return CalendarItemDto{
		Id:      ci.ID,
		Summary: ci.Summary,
	}
}
