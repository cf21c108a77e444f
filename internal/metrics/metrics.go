package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for clubhub
type Metrics struct {
	// API client metrics
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIRetries         *prometheus.CounterVec

	// State container metrics
	ContainerFetches    *prometheus.CounterVec
	StaleResponses      *prometheus.CounterVec
	ActiveSubscriptions *prometheus.GaugeVec

	// Authentication metrics
	AuthTransitions *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_api_requests_total",
				Help: "Total number of club API requests",
			},
			[]string{"method", "route", "status"},
		),
		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clubhub_api_request_duration_seconds",
				Help:    "Club API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"method", "route"},
		),
		APIRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_api_retries_total",
				Help: "Total number of retried club API requests",
			},
			[]string{"route"},
		),

		ContainerFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_container_fetches_total",
				Help: "Total number of state container fetches",
			},
			[]string{"container", "outcome"},
		),
		StaleResponses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_stale_responses_dropped_total",
				Help: "Responses discarded because a newer request superseded them",
			},
			[]string{"container"},
		),
		ActiveSubscriptions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clubhub_active_subscriptions",
				Help: "Current number of subscribers per state container",
			},
			[]string{"container"},
		),

		AuthTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_auth_transitions_total",
				Help: "Authentication state transitions",
			},
			[]string{"status"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubhub_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// ObserveRequest records one completed API request. status 0 means transport failure.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.APIRequests.WithLabelValues(method, route, code).Inc()
	m.APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveRetry counts a retry of route.
func (m *Metrics) ObserveRetry(route string) {
	if m == nil {
		return
	}
	m.APIRetries.WithLabelValues(route).Inc()
}

// ObserveFetch records a container fetch outcome ("ok", "error", "missing_key").
func (m *Metrics) ObserveFetch(container, outcome string) {
	if m == nil {
		return
	}
	m.ContainerFetches.WithLabelValues(container, outcome).Inc()
}

// ObserveStale counts a dropped stale response.
func (m *Metrics) ObserveStale(container string) {
	if m == nil {
		return
	}
	m.StaleResponses.WithLabelValues(container).Inc()
}

// SetSubscribers sets the subscriber gauge for container.
func (m *Metrics) SetSubscribers(container string, n int) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(container).Set(float64(n))
}

// ObserveAuth records an authentication status change.
func (m *Metrics) ObserveAuth(status string) {
	if m == nil {
		return
	}
	m.AuthTransitions.WithLabelValues(status).Inc()
}

// ObserveError counts an error by code and component.
func (m *Metrics) ObserveError(code, component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(code, component).Inc()
}
