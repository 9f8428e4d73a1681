package scheduler

import (
	"context"
	"strings"
	"time"

	"lead-tracker-go/internal/calendar"
	"lead-tracker-go/internal/model"
	"lead-tracker-go/internal/opportunity"
	"lead-tracker-go/internal/report"
)

// interactionSummaryChars bounds the body excerpt stored per interaction row.
const interactionSummaryChars = 1000

// processCycle runs one full ingestion cycle:
// fetch -> filter -> classify -> route -> commit -> persist dedup set.
// Messages are handled strictly sequentially; dedup-set mutation and report
// append order assume no interleaving.
func (s *Scheduler) processCycle() {
	s.wg.Add(1)
	defer s.wg.Done()

	ctx := s.runCtx()

	s.maybeLogDigest(time.Now())

	s.log.Info("Starting ingestion cycle")
	startTime := time.Now()
	s.metrics.CycleCount.Inc()

	emails, err := s.fetcher.FetchRecent(ctx, s.config.FetchLimit)
	if err != nil {
		// Transport failure aborts the cycle; nothing was committed, so no
		// progress is lost and the next cycle retries the same window.
		s.log.Errorf("Failed to fetch emails: %v", err)
		s.metrics.FetchFailures.Inc()
		return
	}

	s.log.Infof("Emails fetched: %d", len(emails))

	batch := s.classifyBatch(ctx, emails)
	if len(batch) == 0 {
		s.log.Info("No new emails to process")
		s.metrics.CycleDuration.Observe(time.Since(startTime).Seconds())
		return
	}

	leads := make([]model.ClassifiedEmail, 0, len(batch))
	for _, ce := range batch {
		if ce.IsLead() {
			leads = append(leads, ce)
		}
	}
	s.log.Infof("Found %d new lead(s) out of %d new email(s). Updating report...", len(leads), len(batch))

	// Resolution (and the summary-history reads inside it) must run before
	// this batch's interaction rows are committed.
	var opportunities map[string]model.Opportunity
	if len(leads) > 0 {
		opportunities = s.resolver.Resolve(ctx, leads)
	}

	if !s.commit(batch, leads, opportunities) {
		// Dedup set deliberately not persisted: the next cycle re-fetches
		// the same messages and the master-sheet upsert absorbs the replay.
		return
	}

	for _, ce := range batch {
		s.processed.Add(ce.Email.ID)
	}
	if err := s.processed.Persist(); err != nil {
		s.log.Errorf("Failed to persist processed emails set: %v", err)
	}
	s.metrics.ProcessedSetSize.Set(float64(s.processed.Len()))

	duration := time.Since(startTime)
	s.metrics.CycleDuration.Observe(duration.Seconds())
	s.log.Infof("Ingestion cycle completed in %v", duration)
}

// classifyBatch filters out already-processed messages and classifies the
// rest in fetch order. A single message's classification failure never aborts
// the batch; the message is recorded as a non-lead.
func (s *Scheduler) classifyBatch(ctx context.Context, emails []model.EmailMessage) []model.ClassifiedEmail {
	var batch []model.ClassifiedEmail

	for _, email := range emails {
		select {
		case <-ctx.Done():
			return batch
		default:
		}

		if s.processed.Contains(email.ID) {
			continue
		}

		s.log.Infof("Checking email %q from %s", email.Subject, email.SenderEmail)
		s.metrics.EmailsProcessed.Inc()

		cls := s.classifier.Classify(ctx, email.Subject, email.Body)
		if cls == nil {
			s.metrics.ClassifyFailures.Inc()
		}

		ce := model.ClassifiedEmail{Email: email, Result: cls}
		if ce.IsLead() {
			s.log.Info("Accepted as a lead")
			s.metrics.LeadCount.Inc()
			if cls.Meeting != nil {
				s.routeMeeting(ctx, ce)
			}
		} else {
			s.log.Info("Rejected as not a lead")
		}

		batch = append(batch, ce)
	}

	return batch
}

func (s *Scheduler) routeMeeting(ctx context.Context, ce model.ClassifiedEmail) {
	outcome, eventID := s.meetings.Schedule(ctx, ce.Result, ce.Email.SenderEmail, ce.Email.SenderName)
	switch outcome {
	case calendar.OutcomeCreated:
		s.metrics.EventsCreated.Inc()
		s.log.Infof("Calendar event %s created for %s", eventID, ce.Email.SenderEmail)
	case calendar.OutcomeDuplicateSkipped:
		s.metrics.EventsDuplicate.Inc()
	case calendar.OutcomeFailed:
		s.log.Warnf("Calendar event creation failed for %s", ce.Email.SenderEmail)
	}
}

// commit writes the batch to the three report tables. Returns false when any
// table write failed; the caller then skips dedup-set persistence so the
// batch is retried next cycle.
func (s *Scheduler) commit(batch, leads []model.ClassifiedEmail, opportunities map[string]model.Opportunity) bool {
	emailRows := make([]report.EmailLogRow, 0, len(batch))
	for _, ce := range batch {
		emailRows = append(emailRows, report.EmailLogRow{
			Received: ce.Email.Received,
			From:     ce.Email.SenderEmail,
			Subject:  ce.Email.Subject,
			IsLead:   ce.IsLead(),
		})
	}

	if err := s.report.AppendEmailLog(emailRows); err != nil {
		s.log.Errorf("Failed to update email log: %v", err)
		s.metrics.ReportFailures.Inc()
		return false
	}

	if len(leads) == 0 {
		return true
	}

	if err := s.report.UpsertOpportunities(opportunities); err != nil {
		s.log.Errorf("Failed to update opportunities master: %v", err)
		s.metrics.ReportFailures.Inc()
		return false
	}

	if err := s.report.AppendInteractionLog(interactionRows(leads)); err != nil {
		s.log.Errorf("Failed to update interaction log: %v", err)
		s.metrics.ReportFailures.Inc()
		return false
	}

	return true
}

// interactionRows builds one log entry per meeting-bearing lead message.
func interactionRows(leads []model.ClassifiedEmail) []report.InteractionRow {
	var rows []report.InteractionRow
	for _, ce := range leads {
		meeting := ce.Result.Meeting
		if meeting == nil {
			continue
		}

		meetingType := meeting.MeetingType
		if meetingType == "" {
			meetingType = "N/A"
		}

		rows = append(rows, report.InteractionRow{
			OpportunityID: opportunity.ID(ce.Email.SenderEmail),
			MeetingDate:   meeting.Date,
			Summary:       truncate(ce.Email.Body, interactionSummaryChars),
			ActionItems:   ce.Result.ActionItems,
			Deadline:      ce.Result.Deadline,
			MeetingType:   meetingType,
			Timestamp:     ce.Email.Received,
		})
	}
	return rows
}

// maybeLogDigest logs an aggregate interaction count once per wall-clock
// occurrence of the configured weekday, independent of batch contents.
func (s *Scheduler) maybeLogDigest(now time.Time) {
	today := int(now.Weekday())
	if today != s.config.DigestWeekday {
		s.lastDigestDay = -1
		return
	}
	if s.lastDigestDay == today {
		return
	}

	history, err := s.report.InteractionHistory("")
	if err != nil {
		s.log.Errorf("Failed to read interaction history for digest: %v", err)
		return
	}

	count := 0
	if history != "" {
		count = len(strings.Split(history, "\n"))
	}

	s.log.Info(strings.Repeat("=", 60))
	s.log.Infof("Weekly Lead Summary: %d interactions logged", count)
	s.log.Info(strings.Repeat("=", 60))
	s.lastDigestDay = today
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
