package calendar

import (
	"context"

	"lead-tracker-go/internal/msgraph"
)

// GraphEventCreator creates events in the mailbox owner's Outlook calendar
// via Microsoft Graph.
type GraphEventCreator struct {
	client *msgraph.Client
}

// NewGraphEventCreator wraps a Graph client as an event backend.
func NewGraphEventCreator(client *msgraph.Client) *GraphEventCreator {
	return &GraphEventCreator{client: client}
}

// CreateEvent creates the event and returns the Graph event id.
func (c *GraphEventCreator) CreateEvent(ctx context.Context, req EventRequest) (string, error) {
	// Graph carries the zone by name next to a wall-clock timestamp.
	const layout = "2006-01-02T15:04:05"

	payload := msgraph.EventPayload{
		Subject: req.Subject,
		Start:   msgraph.EventTime{DateTime: req.Start.Format(layout), TimeZone: req.TimeZone},
		End:     msgraph.EventTime{DateTime: req.End.Format(layout), TimeZone: req.TimeZone},
		Attendees: []msgraph.Attendee{
			{
				EmailAddress: msgraph.EmailAddress{Address: req.AttendeeEmail, Name: req.AttendeeName},
				Type:         "required",
			},
		},
	}

	return c.client.CreateEvent(ctx, payload)
}
