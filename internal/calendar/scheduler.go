package calendar

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"lead-tracker-go/internal/dedup"
	"lead-tracker-go/internal/model"
)

// Outcome is the result of one scheduling attempt.
type Outcome int

const (
	// OutcomeCreated means a new calendar event was created externally.
	OutcomeCreated Outcome = iota
	// OutcomeDuplicateSkipped means the fingerprint was already scheduled.
	OutcomeDuplicateSkipped
	// OutcomeNotApplicable means the classification carries no usable slot.
	OutcomeNotApplicable
	// OutcomeFailed means the external create call failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeDuplicateSkipped:
		return "duplicate_skipped"
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// EventRequest describes the event handed to a calendar backend.
type EventRequest struct {
	Subject       string
	AttendeeEmail string
	AttendeeName  string
	Start         time.Time
	End           time.Time
	TimeZone      string
}

// EventCreator is a calendar backend able to create one event.
type EventCreator interface {
	CreateEvent(ctx context.Context, req EventRequest) (string, error)
}

// Scheduler turns classified meeting intent into at-most-one external
// calendar event per fingerprint. The processed-events store is the sole
// source of truth for "already scheduled": a fingerprint is only recorded
// after the external create succeeded, so a failed create never poisons the
// set. The store is persisted synchronously per success; a crash between the
// external create and the persist is the one accepted duplicate-risk window.
type Scheduler struct {
	creator EventCreator
	events  *dedup.Store
	tz      *time.Location
	log     *logrus.Logger
}

// NewScheduler creates a meeting scheduler. All events use the fixed location
// tz; the timezone is configuration, never derived from message data.
func NewScheduler(creator EventCreator, events *dedup.Store, tz *time.Location, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		creator: creator,
		events:  events,
		tz:      tz,
		log:     log,
	}
}

// eventDuration is the fixed meeting length; end time is never extracted
// from the message.
const eventDuration = time.Hour

// Schedule creates the calendar event for a classified meeting, once per
// fingerprint. The returned event id is only set for OutcomeCreated.
func (s *Scheduler) Schedule(ctx context.Context, cls *model.Classification, attendeeEmail, attendeeName string) (Outcome, string) {
	if cls == nil || !cls.Meeting.HasSlot() {
		return OutcomeNotApplicable, ""
	}
	meeting := cls.Meeting

	fingerprint := Fingerprint(meeting.Subject, meeting.Date, meeting.StartTime, attendeeEmail)
	if s.events.Contains(fingerprint) {
		s.log.Infof("Duplicate event detected, skipping: %s", meeting.Subject)
		return OutcomeDuplicateSkipped, ""
	}

	start, err := time.ParseInLocation("2006-01-02T15:04", meeting.Date+"T"+meeting.StartTime, s.tz)
	if err != nil {
		s.log.Errorf("Failed to parse meeting slot %s %s: %v", meeting.Date, meeting.StartTime, err)
		return OutcomeFailed, ""
	}

	subject := meeting.Subject
	if subject == "" {
		subject = "Meeting"
	}

	eventID, err := s.creator.CreateEvent(ctx, EventRequest{
		Subject:       subject,
		AttendeeEmail: attendeeEmail,
		AttendeeName:  attendeeName,
		Start:         start,
		End:           start.Add(eventDuration),
		TimeZone:      s.tz.String(),
	})
	if err != nil {
		s.log.Errorf("Failed to create event %s: %v", subject, err)
		return OutcomeFailed, ""
	}

	s.events.Add(fingerprint)
	if err := s.events.Persist(); err != nil {
		s.log.Errorf("Failed to persist processed events set: %v", err)
	}

	s.log.Infof("Event created successfully: %s", subject)
	return OutcomeCreated, eventID
}

// Fingerprint derives the stable identity of a meeting request: md5 of
// subject, date, start time, and attendee address, normalized to lowercase.
func Fingerprint(subject, date, startTime, attendeeEmail string) string {
	data := strings.ToLower(fmt.Sprintf("%s|%s|%s|%s", subject, date, startTime, attendeeEmail))
	return fmt.Sprintf("%x", md5.Sum([]byte(data)))
}
