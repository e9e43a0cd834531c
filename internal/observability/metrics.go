package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	PricesResolved      *prometheus.CounterVec
	DivesConsumed       prometheus.Counter
	CommissionsRecorded prometheus.Counter
	SequenceRetries     prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reefdesk_http_requests_total",
		Help: "Number of HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reefdesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	pricesResolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reefdesk_prices_resolved_total",
		Help: "Price resolutions by outcome.",
	}, []string{"outcome"})
	divesConsumed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reefdesk_dives_consumed_total",
		Help: "Dives consumed against punch-card packages.",
	})
	commissionsRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reefdesk_commissions_recorded_total",
		Help: "Agent commission rows recorded or replaced.",
	})
	sequenceRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reefdesk_sequence_retries_total",
		Help: "Retries taken while allocating document numbers.",
	})
	registry.MustRegister(requests, duration, pricesResolved, divesConsumed, commissionsRecorded, sequenceRetries)
	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:       requests,
		requestDuration:     duration,
		PricesResolved:      pricesResolved,
		DivesConsumed:       divesConsumed,
		CommissionsRecorded: commissionsRecorded,
		SequenceRetries:     sequenceRetries,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
