package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/google"
	"github.com/gatherly/gatherly/pkg/invite"
	"github.com/gatherly/gatherly/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus *event_bus.EventBus

	UserService user.Service
	UserHandler *user.Handler

	EventRepo    event.Repository
	EventService event.Service
	EventHandler *event.Handler

	InviteService invite.Service
	InviteHandler *invite.Handler

	AvailabilityService availability.Service
	AvailabilityHandler *availability.Handler

	GoogleAuth    *google.GoogleAuth
	GoogleService google.Service
	GoogleHandler *google.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewEventBus()

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.EventRepo = event.NewRepository(db)
	deps.EventService = event.NewService(deps.EventRepo, deps.Bus)
	deps.EventHandler = event.NewHandler(deps.EventService)

	// The invite service looks events up through the repository directly so
	// invite authorization does not depend on event ownership checks.
	deps.InviteService = invite.NewService(invite.NewRepository(db), deps.EventRepo.FindEvent, deps.Bus)
	deps.InviteHandler = invite.NewHandler(deps.InviteService)

	deps.AvailabilityService = availability.NewService(deps.EventService.EventsForUsers)
	deps.AvailabilityHandler = availability.NewHandler(deps.AvailabilityService)

	deps.GoogleAuth = google.NewGoogleAuth(db, deps.UserService, cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth, deps.UserService, deps.EventService.EventsForUser, deps.EventService.CreateEvent)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)

	return deps
}
