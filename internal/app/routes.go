package app

import (
	"github.com/gorilla/mux"

	"github.com/gatherly/gatherly/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Events
	r.HandleFunc("/api/event", deps.EventHandler.Create).Methods("POST")
	r.HandleFunc("/api/event", deps.EventHandler.GetOccurrences).Methods("GET")
	r.HandleFunc("/api/event/trash", deps.EventHandler.ListTrash).Methods("GET")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.Get).Methods("GET")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.Update).Methods("PUT")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.Trash).Methods("DELETE")
	r.HandleFunc("/api/event/{eventId}/restore", deps.EventHandler.Restore).Methods("POST")
	r.HandleFunc("/api/event/{eventId}/permanent", deps.EventHandler.DeletePermanently).Methods("DELETE")

	// Invites
	r.HandleFunc("/api/event/{eventId}/invite", deps.InviteHandler.Create).Methods("POST")
	r.HandleFunc("/api/event/{eventId}/invite", deps.InviteHandler.ListForEvent).Methods("GET")
	r.HandleFunc("/api/invite", deps.InviteHandler.ListMine).Methods("GET")
	r.HandleFunc("/api/invite/{inviteId}/response", deps.InviteHandler.Respond).Methods("PUT")
	r.HandleFunc("/api/invite/{inviteId}", deps.InviteHandler.Cancel).Methods("DELETE")

	// Availability
	r.HandleFunc("/api/availability", deps.AvailabilityHandler.GetAvailability).Methods("GET")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current/photo", deps.UserHandler.UploadPhoto).Methods("PUT")
	r.HandleFunc("/api/user/current/photo", deps.UserHandler.GetPhoto).Methods("GET")
	r.HandleFunc("/api/user/current/photo", deps.UserHandler.DeletePhoto).Methods("DELETE")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
	r.HandleFunc("/api/user/{userUid}", deps.UserHandler.DeleteUser).Methods("DELETE")
	r.HandleFunc("/api/user/{userUid}/photo", deps.UserHandler.GetPhoto).Methods("GET")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/calendars", deps.GoogleHandler.ListCalendars).Methods("GET")
	r.HandleFunc("/api/integrations/google/export", deps.GoogleHandler.ExportEvents).Queries("from", "{from}", "to", "{to}").Methods("POST")
	r.HandleFunc("/api/integrations/google/import", deps.GoogleHandler.ImportEvents).Queries("from", "{from}", "to", "{to}").Methods("POST")
}
