package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "azox_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ChatMessagesSent counts accepted chat messages by channel ("dm" for
	// direct messages).
	ChatMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "azox_chat_messages_sent_total",
		Help: "Total number of chat messages accepted, by channel",
	}, []string{"channel"})

	// ChatRateLimited counts messages rejected by the chat rate limiter.
	ChatRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "azox_chat_rate_limited_total",
		Help: "Total number of chat messages rejected by the rate limiter",
	})

	// ModerationActions counts executed moderation actions by kind.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "azox_moderation_actions_total",
		Help: "Total number of moderation actions executed, by action",
	}, []string{"action"})

	// BulkRowsAffected records how many rows each bulk operation touched.
	BulkRowsAffected = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "azox_bulk_rows_affected",
		Help:    "Rows affected per bulk moderation operation",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000},
	}, []string{"operation"})
)

// InitMetrics creates the Prometheus HTTP middleware for the service.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware registers the /metrics endpoint on the app and returns
// the request instrumentation handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
