package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_errors_total",
		Help: "Total number of failed Redis commands",
	}, []string{"command"})

	// ActiveWebSockets is the number of open realtime connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_active_websockets",
		Help: "Number of open websocket connections",
	})

	// AuthOutcomes counts session resolution results (anonymous, resolved, provisioned, rejected).
	AuthOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_auth_outcomes_total",
		Help: "Session resolution outcomes at the request boundary",
	}, []string{"outcome"})
)

var (
	promMu    sync.Mutex
	promByApp = map[string]*fiberprometheus.FiberPrometheus{}
)

// InitMetrics returns the Fiber Prometheus middleware for the given service
// name. Collectors register once per process, so repeated calls share one instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promMu.Lock()
	defer promMu.Unlock()
	if p, ok := promByApp[serviceName]; ok {
		return p
	}
	p := fiberprometheus.New(serviceName)
	promByApp[serviceName] = p
	return p
}

// MetricsMiddleware records request counts and latency.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
