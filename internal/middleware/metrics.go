package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homelet_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// WorkflowActions counts application lifecycle actions by action name and
	// outcome ("ok" or the error code).
	WorkflowActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homelet_workflow_actions_total",
		Help: "Total application workflow actions by action and outcome",
	}, []string{"action", "outcome"})

	// DocumentUploads counts stored contract documents by slot.
	DocumentUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homelet_document_uploads_total",
		Help: "Total contract documents stored by slot",
	}, []string{"slot"})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the HTTP metrics collection handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
