package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"lead-tracker-go/config"
)

// GoogleEventCreator creates events in a Google Calendar. It is the
// alternative backend for deployments whose calendar does not live in
// Microsoft 365.
type GoogleEventCreator struct {
	service    *gcal.Service
	calendarID string
}

// NewGoogleEventCreator creates a Google Calendar backend from a refresh
// token.
func NewGoogleEventCreator(cfg *config.GoogleConfig) (*GoogleEventCreator, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gcal.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gcal.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &GoogleEventCreator{
		service:    service,
		calendarID: cfg.CalendarID,
	}, nil
}

// CreateEvent creates the event and returns the Google event id.
func (c *GoogleEventCreator) CreateEvent(ctx context.Context, req EventRequest) (string, error) {
	event := &gcal.Event{
		Summary: req.Subject,
		Start: &gcal.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: req.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: req.TimeZone,
		},
		Attendees: []*gcal.EventAttendee{
			{Email: req.AttendeeEmail, DisplayName: req.AttendeeName},
		},
	}

	created, err := c.service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}

	return created.Id, nil
}
