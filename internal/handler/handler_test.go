package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-tracker-go/config"
	"lead-tracker-go/internal/calendar"
	"lead-tracker-go/internal/dedup"
	"lead-tracker-go/internal/metrics"
	"lead-tracker-go/internal/model"
	"lead-tracker-go/internal/opportunity"
	"lead-tracker-go/internal/report"
	"lead-tracker-go/internal/scheduler"
)

// Prometheus collectors register globally, so every test shares one instance.
var (
	testMetrics     *metrics.Metrics
	testMetricsOnce sync.Once
)

func sharedMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.NewMetrics()
	})
	return testMetrics
}

type emptyFetcher struct{}

func (emptyFetcher) FetchRecent(context.Context, int) ([]model.EmailMessage, error) {
	return nil, nil
}

func (emptyFetcher) Close() error { return nil }

type nopClassifier struct{}

func (nopClassifier) Classify(context.Context, string, string) *model.Classification { return nil }

type nopCreator struct{}

func (nopCreator) CreateEvent(context.Context, calendar.EventRequest) (string, error) {
	return "", nil
}

type nopProvisioner struct{}

func (nopProvisioner) CreateFolder(context.Context, string) (string, error) { return "", nil }

type nopNotes struct{}

func (nopNotes) MaybeSummarize(context.Context, string) string { return "" }

func newTestRouter(t *testing.T) (*gin.Engine, *Handlers, *scheduler.Scheduler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := t.TempDir()
	processed := dedup.Load(filepath.Join(dir, "processed_emails.ids"), log)
	events := dedup.Load(filepath.Join(dir, "processed_events.ids"), log)

	met := sharedMetrics()
	meetings := calendar.NewScheduler(nopCreator{}, events, time.UTC, log)
	resolver := opportunity.NewResolver(nopProvisioner{}, nopNotes{}, log)
	workbook := report.NewWorkbook(filepath.Join(dir, "Opportunities.xlsx"), log)

	cfg := &config.SchedulerConfig{IntervalMinutes: 60, FetchLimit: 25, DigestWeekday: 5}
	sched := scheduler.NewScheduler(cfg, emptyFetcher{}, nopClassifier{}, meetings, resolver, workbook, processed, met, log)
	t.Cleanup(func() { sched.Stop() })

	handlers := NewHandlers(sched, processed, events, met, log)
	router := gin.New()
	handlers.SetupRoutes(router)
	return router, handlers, sched
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "stopped", resp.Details["scheduler"])
	assert.Equal(t, "0", resp.Details["processed_emails"])
	assert.Equal(t, "0", resp.Details["processed_events"])
}

func TestSchedulerEndpoints(t *testing.T) {
	router, _, sched := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/scheduler/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"stopped"`)

	w = doRequest(router, http.MethodPost, "/api/v1/scheduler/start")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sched.IsRunning())

	// Starting twice fails.
	w = doRequest(router, http.MethodPost, "/api/v1/scheduler/start")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/scheduler/status")
	assert.Contains(t, w.Body.String(), `"status":"running"`)

	w = doRequest(router, http.MethodPost, "/api/v1/scheduler/stop")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sched.IsRunning())
}

func TestRunOnceEndpoint(t *testing.T) {
	router, _, sched := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/scheduler/run")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.False(t, sched.IsRunning())
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lead_tracker_cycle_count")
}
