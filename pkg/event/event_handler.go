package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/interval"
	"github.com/gatherly/gatherly/pkg/user"
)

type RecurrenceDTO struct {
	Pattern   string `json:"pattern"`
	EndAt     string `json:"endAt,omitempty"`
	Weekdays  []int  `json:"weekdays,omitempty"`
	MonthDays []int  `json:"monthDays,omitempty"`
}

type EventDTO struct {
	ID          int            `json:"id"`
	UID         string         `json:"uid,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Colour      string         `json:"colour,omitempty"`
	StartTime   string         `json:"startTime"`
	EndTime     string         `json:"endTime"`
	DeletedAt   string         `json:"deletedAt,omitempty"`
	Recurrence  *RecurrenceDTO `json:"recurrence,omitempty"`
}

type OccurrenceDTO struct {
	EventId     int    `json:"eventId"`
	EventUid    string `json:"eventUid"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Colour      string `json:"colour,omitempty"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Recurring   bool   `json:"recurring"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// Create stores a new event for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new event")
	w.Header().Set("Content-Type", "application/json")

	event, ok := decodeEvent(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateEvent(r.Context(), event)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(eventToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Update replaces an owned event, including its recurrence rule.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := pathId(w, r, "eventId")
	if !ok {
		return
	}
	event, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	event.ID = eventId

	updated, err := h.service.UpdateEvent(r.Context(), event)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(eventToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := pathId(w, r, "eventId")
	if !ok {
		return
	}

	event, err := h.service.GetEvent(r.Context(), eventId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(eventToDTO(event)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetOccurrences expands the current user's events into occurrences within
// the optional from/to query window (RFC3339). Missing boundaries default to
// the two years starting now.
func (h *Handler) GetOccurrences(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}

	occurrences, err := h.service.EventsForUser(r.Context(), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]OccurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		response = append(response, occurrenceToDTO(occurrence))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Trash soft-deletes an owned event. It stays restorable for 30 days.
func (h *Handler) Trash(w http.ResponseWriter, r *http.Request) {
	log.Debug("Moving event to trash")
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := pathId(w, r, "eventId")
	if !ok {
		return
	}

	if err := h.service.TrashEvent(r.Context(), eventId); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	events, err := h.service.ListTrash(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response := make([]EventDTO, 0, len(events))
	for _, event := range events {
		response = append(response, eventToDTO(event))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	log.Debug("Restoring event from trash")
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := pathId(w, r, "eventId")
	if !ok {
		return
	}

	if err := h.service.RestoreEvent(r.Context(), eventId); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeletePermanently(w http.ResponseWriter, r *http.Request) {
	log.Debug("Permanently deleting event")
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := pathId(w, r, "eventId")
	if !ok {
		return
	}

	if err := h.service.DeleteEventPermanently(r.Context(), eventId); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (Event, bool) {
	var dto EventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return Event{}, false
	}
	event, err := dtoToEvent(dto)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid time format",
			Details: "Times must be in RFC3339 format",
		})
		return Event{}, false
	}
	return event, true
}

func pathId(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars[name])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid " + name})
		return 0, false
	}
	return id, true
}

func queryTime(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid '" + name + "' parameter",
			Details: name + " must be in RFC3339 format",
		})
		return nil, false
	}
	return &t, true
}

func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, user.ErrNoUser):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrEventNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, ErrMissingTitle),
		errors.Is(err, ErrEndBeforeStart),
		errors.Is(err, ErrInvalidRecurrenceRule),
		errors.Is(err, interval.ErrInvalidRange):
		status = http.StatusBadRequest
	case errors.Is(err, ErrAlreadyDeleted),
		errors.Is(err, ErrNotDeleted),
		errors.Is(err, ErrRestoreWindowExpired),
		errors.Is(err, ErrRetentionNotElapsed):
		status = http.StatusConflict
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
}

func dtoToEvent(dto EventDTO) (Event, error) {
	startTime, err := time.Parse(time.RFC3339, dto.StartTime)
	if err != nil {
		return Event{}, err
	}
	endTime, err := time.Parse(time.RFC3339, dto.EndTime)
	if err != nil {
		return Event{}, err
	}
	event := Event{
		ID:          dto.ID,
		Title:       dto.Title,
		Description: dto.Description,
		Colour:      dto.Colour,
		StartTime:   startTime,
		EndTime:     endTime,
	}
	if dto.Recurrence != nil {
		rule := &Recurrence{
			Pattern:   Pattern(dto.Recurrence.Pattern),
			MonthDays: dto.Recurrence.MonthDays,
		}
		if dto.Recurrence.EndAt != "" {
			endAt, err := time.Parse(time.RFC3339, dto.Recurrence.EndAt)
			if err != nil {
				return Event{}, err
			}
			rule.EndAt = &endAt
		}
		for _, d := range dto.Recurrence.Weekdays {
			rule.Weekdays = append(rule.Weekdays, time.Weekday(d))
		}
		event.Recurrence = rule
	}
	return event, nil
}

func eventToDTO(event Event) EventDTO {
	dto := EventDTO{
		ID:          event.ID,
		UID:         event.UID.String(),
		Title:       event.Title,
		Description: event.Description,
		Colour:      event.Colour,
		StartTime:   event.StartTime.Format(time.RFC3339),
		EndTime:     event.EndTime.Format(time.RFC3339),
	}
	if event.DeletedAt != nil {
		dto.DeletedAt = event.DeletedAt.Format(time.RFC3339)
	}
	if event.Recurrence != nil {
		rule := &RecurrenceDTO{
			Pattern:   string(event.Recurrence.Pattern),
			MonthDays: event.Recurrence.MonthDays,
		}
		if event.Recurrence.EndAt != nil {
			rule.EndAt = event.Recurrence.EndAt.Format(time.RFC3339)
		}
		for _, d := range event.Recurrence.Weekdays {
			rule.Weekdays = append(rule.Weekdays, int(d))
		}
		dto.Recurrence = rule
	}
	return dto
}

func occurrenceToDTO(occurrence Occurrence) OccurrenceDTO {
	return OccurrenceDTO{
		EventId:     occurrence.EventID,
		EventUid:    occurrence.EventUID.String(),
		Title:       occurrence.Title,
		Description: occurrence.Description,
		Colour:      occurrence.Colour,
		StartTime:   occurrence.StartTime.Format(time.RFC3339),
		EndTime:     occurrence.EndTime.Format(time.RFC3339),
		Recurring:   occurrence.Recurring,
	}
}
