package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/david/rfp-tracker/internal/civil"
)

const googleCalendarID = "primary"

// GoogleClient syncs events to the user's primary Google calendar.
type GoogleClient struct {
	service *gcal.Service
}

// NewGoogleClient builds a client on top of an authenticated HTTP client
// (see internal/auth for the token lifecycle).
func NewGoogleClient(ctx context.Context, httpClient *http.Client) (*GoogleClient, error) {
	service, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleClient{service: service}, nil
}

// InsertEvent creates the event and returns the Google event ID.
func (g *GoogleClient) InsertEvent(ctx context.Context, ev Event) (string, error) {
	created, err := g.service.Events.Insert(googleCalendarID, toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return created.Id, nil
}

// UpdateEvent replaces the event with the given Google event ID.
func (g *GoogleClient) UpdateEvent(ctx context.Context, eventID string, ev Event) error {
	if _, err := g.service.Events.Update(googleCalendarID, eventID, toGoogleEvent(ev)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update calendar event: %w", err)
	}
	return nil
}

// DeleteEvent removes the event with the given Google event ID.
func (g *GoogleClient) DeleteEvent(ctx context.Context, eventID string) error {
	if err := g.service.Events.Delete(googleCalendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	return nil
}

// toGoogleEvent maps an event to the Google Calendar wire shape. All-day
// events use equal start and end dates; timed events carry an explicit
// Europe/London timezone.
func toGoogleEvent(ev Event) *gcal.Event {
	out := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
	}

	if ev.AllDay {
		out.Start = &gcal.EventDateTime{Date: ev.StartDate.String()}
		out.End = &gcal.EventDateTime{Date: ev.EndDate.String()}
	} else {
		out.Start = &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: civil.London.String(),
		}
		out.End = &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: civil.London.String(),
		}
	}

	if ev.ReminderBefore > 0 {
		out.Reminders = &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "popup", Minutes: int64(ev.ReminderBefore / time.Minute)},
			},
			ForceSendFields: []string{"UseDefault"},
		}
	}

	return out
}
