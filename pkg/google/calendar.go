package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/gatherly/gatherly/pkg/event"
)

var (
	ErrUnathenticated       = fmt.Errorf("user is unauthenticated, authentication is required")
	ErrNoCalendarConfigured = errors.New("no Google calendar is configured for the user")
)

// eventMetadata ties an exported Google Calendar entry back to the
// originating occurrence. It is stored in the entry description.
type eventMetadata struct {
	EventID  int    `json:"eventId"`
	EventUID string `json:"eventUid"`
}

// ExternalEvent is a Google Calendar entry as seen by the rest of the
// application.
type ExternalEvent struct {
	UID       string
	Summary   string
	StartTime time.Time
	EndTime   time.Time
	EventID   int
	EventUID  string
}

type Calendar struct {
	service    *gcal.Service
	userId     int
	calendarId string
}

func newGoogleCalendar(service *gcal.Service, userId int, calendarId string) *Calendar {
	return &Calendar{
		service:    service,
		userId:     userId,
		calendarId: calendarId,
	}
}

func (c *Calendar) AddOccurrence(_ context.Context, occ event.Occurrence) (ExternalEvent, error) {
	log.Debugf("Adding occurrence of event %d to calendar: %s", occ.EventID, c.calendarId)
	metadata, err := json.Marshal(eventMetadata{
		EventID:  occ.EventID,
		EventUID: occ.EventUID.String(),
	})
	if err != nil {
		err := fmt.Errorf("unable to marshal event metadata: %v", err)
		log.Error(err)
		return ExternalEvent{}, err
	}

	result, err := c.service.Events.Insert(c.calendarId, &gcal.Event{
		Summary:     occ.Title,
		Description: string(metadata),
		Start: &gcal.EventDateTime{
			DateTime: occ.StartTime.Format(time.RFC3339),
		},
		End: &gcal.EventDateTime{
			DateTime: occ.EndTime.Format(time.RFC3339),
		},
	}).Do()
	if err != nil {
		err := fmt.Errorf("unable to insert event in Google Calendar: %v", err)
		log.Error(err)
		return ExternalEvent{}, err
	}

	return ExternalEvent{
		UID:       result.Id,
		Summary:   occ.Title,
		StartTime: occ.StartTime,
		EndTime:   occ.EndTime,
		EventID:   occ.EventID,
		EventUID:  occ.EventUID.String(),
	}, nil
}

func (c *Calendar) GetEvents(_ context.Context, from time.Time, to time.Time) ([]ExternalEvent, error) {
	googleEvents, err := c.service.Events.List(c.calendarId).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Do()

	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}

	return c.googleEventsToEvents(googleEvents.Items), nil
}

func (c *Calendar) googleEventsToEvents(googleEvents []*gcal.Event) []ExternalEvent {
	events := make([]ExternalEvent, 0, len(googleEvents))
	for _, item := range googleEvents {
		startTime, _ := time.Parse(time.RFC3339, item.Start.DateTime)
		endTime, _ := time.Parse(time.RFC3339, item.End.DateTime)

		var metadata eventMetadata
		if item.Description != "" {
			if err := json.Unmarshal([]byte(item.Description), &metadata); err != nil {
				log.Warnf("found calendar event with foreign metadata - keeping without link: %s (%s - %s)",
					item.Summary, item.Start.DateTime, item.End.DateTime)
			}
		}

		events = append(events, ExternalEvent{
			UID:       item.Id,
			Summary:   item.Summary,
			StartTime: startTime,
			EndTime:   endTime,
			EventID:   metadata.EventID,
			EventUID:  metadata.EventUID,
		})
	}
	return events
}

func (c *Calendar) DeleteEvent(_ context.Context, eventUid string) error {
	err := c.service.Events.Delete(c.calendarId, eventUid).Do()
	if err != nil {
		err := fmt.Errorf("unable to delete event from Google Calendar: %v", err)
		log.Error(err)
		return err
	}
	return nil
}
