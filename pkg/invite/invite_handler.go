package invite

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/user"
)

type InviteDTO struct {
	ID          int    `json:"id"`
	EventId     int    `json:"eventId"`
	InviterId   int    `json:"inviterId"`
	InviteeId   int    `json:"inviteeId"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
	RespondedAt string `json:"respondedAt,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

// Create invites a user to an event owned by the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new invite")
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := pathId(w, r, "eventId")
	if !ok {
		return
	}

	var request struct {
		InviteeId int `json:"inviteeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	invite, err := h.service.CreateInvite(r.Context(), eventId, request.InviteeId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(inviteToDTO(invite)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Respond accepts or declines an invite on behalf of the invitee.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	inviteId, ok := pathId(w, r, "inviteId")
	if !ok {
		return
	}

	var request struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}
	status := Status(request.Status)
	if status != StatusAccepted && status != StatusDeclined {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid 'status' in request body",
			Details: "Status must be ACCEPTED or DECLINED",
		})
		return
	}

	invite, err := h.service.Respond(r.Context(), inviteId, status)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(inviteToDTO(invite)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Cancel withdraws an invite on behalf of the inviter.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	inviteId, ok := pathId(w, r, "inviteId")
	if !ok {
		return
	}

	invite, err := h.service.Cancel(r.Context(), inviteId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(inviteToDTO(invite)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// ListForEvent returns all invites of an owned event.
func (h *Handler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	eventId, ok := pathId(w, r, "eventId")
	if !ok {
		return
	}

	invites, err := h.service.ListForEvent(r.Context(), eventId)
	if err != nil {
		writeError(w, err)
		return
	}
	writeInvites(w, invites)
}

// ListMine returns the current user's incoming invites, optionally filtered
// by the status query parameter.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var status *Status
	if value := r.URL.Query().Get("status"); value != "" {
		s := Status(value)
		switch s {
		case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled:
			status = &s
		default:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid 'status' parameter"})
			return
		}
	}

	invites, err := h.service.ListForCurrentUser(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeInvites(w, invites)
}

func writeInvites(w http.ResponseWriter, invites []Invite) {
	response := make([]InviteDTO, 0, len(invites))
	for _, invite := range invites {
		response = append(response, inviteToDTO(invite))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
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

func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, user.ErrNoUser):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrInviteNotFound), errors.Is(err, event.ErrEventNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrNotInvitee), errors.Is(err, ErrNotInviter), errors.Is(err, event.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, ErrSelfInvite):
		status = http.StatusBadRequest
	case errors.Is(err, ErrDuplicateInvite), errors.Is(err, ErrInvalidTransition):
		status = http.StatusConflict
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()})
}

func inviteToDTO(invite Invite) InviteDTO {
	dto := InviteDTO{
		ID:        invite.ID,
		EventId:   invite.EventID,
		InviterId: invite.InviterID,
		InviteeId: invite.InviteeID,
		Status:    string(invite.Status),
		CreatedAt: invite.CreatedAt.Format(time.RFC3339),
	}
	if invite.RespondedAt != nil {
		dto.RespondedAt = invite.RespondedAt.Format(time.RFC3339)
	}
	return dto
}
