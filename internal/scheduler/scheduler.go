package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"lead-tracker-go/config"
	"lead-tracker-go/internal/calendar"
	"lead-tracker-go/internal/dedup"
	"lead-tracker-go/internal/fetcher"
	"lead-tracker-go/internal/metrics"
	"lead-tracker-go/internal/model"
	"lead-tracker-go/internal/report"
)

// Classifier is the text-classification adapter the loop consults per
// message. A nil result means classification failed or the payload was
// unusable; the message is then treated as not-a-lead.
type Classifier interface {
	Classify(ctx context.Context, subject, body string) *model.Classification
}

// MeetingScheduler turns meeting intent into at-most-one calendar event.
type MeetingScheduler interface {
	Schedule(ctx context.Context, cls *model.Classification, attendeeEmail, attendeeName string) (calendar.Outcome, string)
}

// OpportunityResolver maps a batch of lead messages to opportunity records.
type OpportunityResolver interface {
	Resolve(ctx context.Context, leads []model.ClassifiedEmail) map[string]model.Opportunity
}

// ReportStore is the system of record the loop commits each batch to.
type ReportStore interface {
	AppendEmailLog(rows []report.EmailLogRow) error
	UpsertOpportunities(opportunities map[string]model.Opportunity) error
	AppendInteractionLog(rows []report.InteractionRow) error
	InteractionHistory(opportunityID string) (string, error)
}

// Scheduler manages the periodic ingestion cycle
type Scheduler struct {
	cron       *cron.Cron
	entryID    cron.EntryID
	config     *config.SchedulerConfig
	fetcher    fetcher.MailFetcher
	classifier Classifier
	meetings   MeetingScheduler
	resolver   OpportunityResolver
	report     ReportStore
	processed  *dedup.Store
	metrics    *metrics.Metrics
	log        *logrus.Logger

	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	isRunning     bool
	mu            sync.RWMutex
	lastDigestDay int
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, f fetcher.MailFetcher, c Classifier, m MeetingScheduler, r OpportunityResolver, rep ReportStore, processed *dedup.Store, met *metrics.Metrics, log *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		config:        cfg,
		fetcher:       f,
		classifier:    c,
		meetings:      m,
		resolver:      r,
		report:        rep,
		processed:     processed,
		metrics:       met,
		log:           log,
		ctx:           ctx,
		cancel:        cancel,
		lastDigestDay: -1,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	// A prior Stop cancelled the cycle context; restarted cycles need a
	// live one.
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	entryID, err := s.cron.AddFunc(schedule, s.processCycle)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	s.log.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		s.log.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		s.log.Warn("Scheduler stop timeout, forcing shutdown")
	}

	// Drop the entry so a later Start does not accumulate duplicates.
	s.cron.Remove(s.entryID)

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce runs one ingestion cycle immediately (manual trigger)
func (s *Scheduler) RunOnce() error {
	s.log.Info("Running ingestion cycle once")
	s.processCycle()
	return nil
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// runCtx returns the current cycle context; Start replaces it after a Stop.
func (s *Scheduler) runCtx() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Wait waits for in-flight cycles to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
