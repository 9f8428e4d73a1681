package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"lead-tracker-go/internal/dedup"
	"lead-tracker-go/internal/metrics"
	"lead-tracker-go/internal/scheduler"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	scheduler *scheduler.Scheduler
	processed *dedup.Store
	events    *dedup.Store
	metrics   *metrics.Metrics
	log       *logrus.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(s *scheduler.Scheduler, processed, events *dedup.Store, m *metrics.Metrics, log *logrus.Logger) *Handlers {
	return &Handlers{
		scheduler: s,
		processed: processed,
		events:    events,
		metrics:   m,
		log:       log,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		sched := api.Group("/scheduler")
		{
			sched.GET("/status", h.GetSchedulerStatus)
			sched.POST("/start", h.StartScheduler)
			sched.POST("/stop", h.StopScheduler)
			sched.POST("/run", h.RunOnce)
		}
	}
}
