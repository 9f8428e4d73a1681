package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	CycleCount       prometheus.Counter
	FetchFailures    prometheus.Counter
	EmailsProcessed  prometheus.Counter
	LeadCount        prometheus.Counter
	EventsCreated    prometheus.Counter
	EventsDuplicate  prometheus.Counter
	ClassifyFailures prometheus.Counter
	ReportFailures   prometheus.Counter
	ProcessedSetSize prometheus.Gauge
	CycleDuration    prometheus.Histogram
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		CycleCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_tracker_cycle_count",
			Help: "Total number of ingestion cycles started",
		}),
		FetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_tracker_fetch_failures",
			Help: "Total number of aborted cycles due to mailbox fetch failures",
		}),
		EmailsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_tracker_emails_processed",
			Help: "Total number of newly ingested emails",
		}),
		LeadCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_tracker_lead_count",
			Help: "Total number of emails classified as sales leads",
		}),
		EventsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_tracker_events_created",
			Help: "Total number of calendar events created",
		}),
		EventsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_tracker_events_duplicate_skipped",
			Help: "Total number of meeting requests skipped as duplicates",
		}),
		ClassifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_tracker_classify_failures",
			Help: "Total number of emails whose classification failed",
		}),
		ReportFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lead_tracker_report_failures",
			Help: "Total number of failed report table writes",
		}),
		ProcessedSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lead_tracker_processed_emails",
			Help: "Number of email identifiers in the processed set",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lead_tracker_cycle_duration_seconds",
			Help:    "Time spent running one ingestion cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
