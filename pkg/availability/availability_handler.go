package availability

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/interval"
	"github.com/gatherly/gatherly/pkg/user"
)

type BusyIntervalDTO struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	UserId  int    `json:"userId"`
	EventId int    `json:"eventId"`
	Title   string `json:"title"`
}

type FreeIntervalDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityDTO struct {
	Busy []BusyIntervalDTO `json:"busy"`
	Free []FreeIntervalDTO `json:"free"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// GetAvailability computes free/busy for the users in the userIds query
// parameter (comma-separated ids) over the required from/to window.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	log.Debug("Computing availability")
	w.Header().Set("Content-Type", "application/json")

	userIds, ok := parseUserIds(w, r)
	if !ok {
		return
	}
	from, ok := requiredTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := requiredTime(w, r, "to")
	if !ok {
		return
	}
	window, err := interval.New(from, to)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
		return
	}

	availability, err := h.service.Availability(r.Context(), userIds, window)
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(availabilityToDTO(availability)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func parseUserIds(w http.ResponseWriter, r *http.Request) ([]int, bool) {
	raw := r.URL.Query().Get("userIds")
	if raw == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Missing 'userIds' parameter",
			Details: "userIds must be a comma-separated list of user ids",
		})
		return nil, false
	}
	parts := strings.Split(raw, ",")
	userIds := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
				Error:   "Invalid 'userIds' parameter",
				Details: "userIds must be a comma-separated list of user ids",
			})
			return nil, false
		}
		userIds = append(userIds, id)
	}
	return userIds, true
}

func requiredTime(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Missing '" + name + "' parameter"})
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid '" + name + "' parameter",
			Details: name + " must be in RFC3339 format",
		})
		return time.Time{}, false
	}
	return t, true
}

func availabilityToDTO(availability Availability) AvailabilityDTO {
	dto := AvailabilityDTO{
		Busy: make([]BusyIntervalDTO, 0, len(availability.Busy)),
		Free: make([]FreeIntervalDTO, 0, len(availability.Free)),
	}
	for _, b := range availability.Busy {
		dto.Busy = append(dto.Busy, BusyIntervalDTO{
			Start:   b.Start.Format(time.RFC3339),
			End:     b.End.Format(time.RFC3339),
			UserId:  b.UserID,
			EventId: b.EventID,
			Title:   b.Title,
		})
	}
	for _, f := range availability.Free {
		dto.Free = append(dto.Free, FreeIntervalDTO{
			Start: f.Start.Format(time.RFC3339),
			End:   f.End.Format(time.RFC3339),
		})
	}
	return dto
}
