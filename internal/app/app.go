package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"lead-tracker-go/config"
	"lead-tracker-go/internal/calendar"
	"lead-tracker-go/internal/classifier"
	"lead-tracker-go/internal/dedup"
	"lead-tracker-go/internal/fetcher"
	"lead-tracker-go/internal/handler"
	"lead-tracker-go/internal/metrics"
	"lead-tracker-go/internal/msgraph"
	"lead-tracker-go/internal/opportunity"
	"lead-tracker-go/internal/report"
	"lead-tracker-go/internal/router"
	"lead-tracker-go/internal/scheduler"
)

// Run initializes and starts the application
func Run() error {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting Lead Tracker Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	processed := dedup.Load(cfg.State.ProcessedEmailsPath(), log)
	events := dedup.Load(cfg.State.ProcessedEventsPath(), log)
	log.Infof("Loaded %d previously processed emails and %d scheduled events", processed.Len(), events.Len())

	m := metrics.NewMetrics()

	graphClient := msgraph.NewClient(&cfg.Graph, log)

	var mail fetcher.MailFetcher
	if cfg.Mail.UseIMAP {
		mail, err = fetcher.NewIMAPFetcher(&cfg.Mail, log)
		if err != nil {
			return fmt.Errorf("failed to create IMAP fetcher: %w", err)
		}
		log.Info("Using IMAP for email fetching")
	} else {
		mail = fetcher.NewGraphFetcher(graphClient)
		log.Info("Using Microsoft Graph for email fetching")
	}

	gemini := classifier.NewGeminiClient(&cfg.Gemini, log)

	tz, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load calendar timezone: %w", err)
	}

	var creator calendar.EventCreator
	if cfg.Calendar.Provider == "google" {
		creator, err = calendar.NewGoogleEventCreator(&cfg.Calendar.Google)
		if err != nil {
			return fmt.Errorf("failed to create Google Calendar backend: %w", err)
		}
		log.Info("Using Google Calendar for meeting scheduling")
	} else {
		creator = calendar.NewGraphEventCreator(graphClient)
		log.Info("Using Microsoft Graph for meeting scheduling")
	}
	meetings := calendar.NewScheduler(creator, events, tz, log)

	workbook := report.NewWorkbook(cfg.Report.Path, log)
	summarizer := opportunity.NewInteractionSummarizer(workbook, gemini, opportunity.DefaultSummaryThreshold, log)
	resolver := opportunity.NewResolver(graphClient, summarizer, log)

	sched := scheduler.NewScheduler(&cfg.Scheduler, mail, gemini, meetings, resolver, workbook, processed, m, log)

	h := handler.NewHandlers(sched, processed, events, m, log)
	r := router.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		log.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}

	if err := mail.Close(); err != nil {
		log.Errorf("Failed to close mail fetcher: %v", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}
