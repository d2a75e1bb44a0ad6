package google

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/user"
)

type CalendarItem struct {
	ID      string
	Summary string
}

// OccurrencesProvider supplies the current user's occurrences in a window.
type OccurrencesProvider func(ctx context.Context, from *time.Time, to *time.Time) ([]event.Occurrence, error)

// EventCreator stores a new event for the current user.
type EventCreator func(ctx context.Context, e event.Event) (event.Event, error)

type Service interface {
	GetCalendar(ctx context.Context, calendarId string) (*Calendar, error)
	ListCalendars(ctx context.Context) ([]CalendarItem, error)
	ExportEvents(ctx context.Context, from time.Time, to time.Time) (int, error)
	ImportEvents(ctx context.Context, from time.Time, to time.Time) (int, error)
}

type ServiceImpl struct {
	auth        *GoogleAuth
	userService user.Service
	occurrences OccurrencesProvider
	createEvent EventCreator
}

func NewService(auth *GoogleAuth, userService user.Service, occurrences OccurrencesProvider, createEvent EventCreator) *ServiceImpl {
	return &ServiceImpl{
		auth:        auth,
		userService: userService,
		occurrences: occurrences,
		createEvent: createEvent,
	}
}

func (s *ServiceImpl) GetCalendar(ctx context.Context, calendarId string) (*Calendar, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	service, err := s.prepareGoogleService(ctx, userId)
	if err != nil {
		return nil, err
	}
	return newGoogleCalendar(service, userId, calendarId), nil
}

func (s *ServiceImpl) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	googleService, err := s.prepareGoogleService(ctx, userId)
	if err != nil {
		return nil, err
	}
	calendars, err := googleService.CalendarList.List().Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve calendars from Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}
	var googleCalendars []CalendarItem
	for _, cal := range calendars.Items {
		googleCalendars = append(googleCalendars, CalendarItem{
			ID:      cal.Id,
			Summary: cal.Summary,
		})
	}
	return googleCalendars, nil
}

// ExportEvents pushes the current user's occurrences within the window to the
// calendar configured in their settings. Occurrences already present remotely
// (matched by originating event UID and start instant) are not duplicated.
func (s *ServiceImpl) ExportEvents(ctx context.Context, from time.Time, to time.Time) (int, error) {
	currentUser, err := s.userService.GetCurrentUser(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	calendarId := currentUser.Settings.GoogleCalendar.CalendarId
	if calendarId == "" {
		return 0, ErrNoCalendarConfigured
	}

	cal, err := s.GetCalendar(ctx, calendarId)
	if err != nil {
		return 0, err
	}

	occurrences, err := s.occurrences(ctx, &from, &to)
	if err != nil {
		return 0, fmt.Errorf("failed to list occurrences for export: %w", err)
	}

	existing, err := cal.GetEvents(ctx, from, to)
	if err != nil {
		return 0, err
	}
	exported := make(map[string]bool, len(existing))
	for _, e := range existing {
		if e.EventUID != "" {
			exported[e.EventUID+"|"+e.StartTime.Format(time.RFC3339)] = true
		}
	}

	count := 0
	for _, occ := range occurrences {
		key := occ.EventUID.String() + "|" + occ.StartTime.Format(time.RFC3339)
		if exported[key] {
			continue
		}
		if _, err := cal.AddOccurrence(ctx, occ); err != nil {
			return count, err
		}
		count++
	}
	log.Infof("Exported %d occurrences to Google Calendar %s for user %d", count, calendarId, currentUser.Id)
	return count, nil
}

// ImportEvents copies Google Calendar entries within the window into the
// current user's calendar as non-recurring events. Entries originally
// exported from here and entries already mirrored locally are left alone.
func (s *ServiceImpl) ImportEvents(ctx context.Context, from time.Time, to time.Time) (int, error) {
	currentUser, err := s.userService.GetCurrentUser(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	calendarId := currentUser.Settings.GoogleCalendar.CalendarId
	if calendarId == "" {
		return 0, ErrNoCalendarConfigured
	}

	cal, err := s.GetCalendar(ctx, calendarId)
	if err != nil {
		return 0, err
	}
	external, err := cal.GetEvents(ctx, from, to)
	if err != nil {
		return 0, err
	}
	local, err := s.occurrences(ctx, &from, &to)
	if err != nil {
		return 0, fmt.Errorf("failed to list occurrences for import: %w", err)
	}

	count := 0
	for _, e := range importableEvents(external, local) {
		_, err := s.createEvent(ctx, event.Event{
			Title:     e.Summary,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
		})
		if err != nil {
			return count, fmt.Errorf("failed to import event %q: %w", e.Summary, err)
		}
		count++
	}
	log.Infof("Imported %d events from Google Calendar %s for user %d", count, calendarId, currentUser.Id)
	return count, nil
}

// importableEvents selects the external entries worth importing. Entries this
// application exported carry origin metadata and are skipped, as are entries
// without a usable time range or title, and entries already mirrored by a
// local occurrence with the same title and start instant.
func importableEvents(external []ExternalEvent, local []event.Occurrence) []ExternalEvent {
	mirrored := make(map[string]bool, len(local))
	for _, occ := range local {
		mirrored[occ.Title+"|"+occ.StartTime.Format(time.RFC3339)] = true
	}

	var result []ExternalEvent
	for _, e := range external {
		if e.EventUID != "" {
			continue
		}
		if e.Summary == "" || !e.EndTime.After(e.StartTime) {
			continue
		}
		if mirrored[e.Summary+"|"+e.StartTime.Format(time.RFC3339)] {
			continue
		}
		result = append(result, e)
	}
	return result
}

func (s *ServiceImpl) prepareGoogleService(ctx context.Context, userId int) (*calendar.Service, error) {

	client, err := s.auth.getClient(ctx, userId)
	if err != nil {
		err := fmt.Errorf("unable to retrieve Google auth client: %v", err)
		log.Error(err)
		return nil, err
	}
	if client == nil {
		log.Debug("user is unauthenticated, authentication is required")
		return nil, ErrUnathenticated
	}
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		err := fmt.Errorf("unable to retrieve Calendar client: %v", err)
		log.Error(err)
		return nil, err
	}

	return service, nil
}
