// Package observability exposes the Prometheus registry, HTTP middleware
// and the billing counters the worker and API record.
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

	billsCreated       prometheus.Counter
	billCreateRetries  prometheus.Counter
	allocatorFallbacks prometheus.Counter
}

// NewMetrics initializes the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hisab_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hisab_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	billsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hisab_bills_created_total",
		Help: "Bills committed by the invoice transactor.",
	})
	createRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hisab_bill_create_retries_total",
		Help: "Bill-creation transaction retries after conflicts.",
	})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hisab_bill_number_fallbacks_total",
		Help: "Timestamp-derived bill numbers issued after probe exhaustion.",
	})
	registry.MustRegister(requests, duration, billsCreated, createRetries, fallbacks)
	return &Metrics{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:      requests,
		requestDuration:    duration,
		billsCreated:       billsCreated,
		billCreateRetries:  createRetries,
		allocatorFallbacks: fallbacks,
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

// Middleware records request metrics for every HTTP request.
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

// BillCreated increments the committed-bill counter.
func (m *Metrics) BillCreated() {
	if m != nil {
		m.billsCreated.Inc()
	}
}

// BillCreateRetried increments the transaction-retry counter.
func (m *Metrics) BillCreateRetried() {
	if m != nil {
		m.billCreateRetries.Inc()
	}
}

// AllocatorFellBack increments the timestamp-fallback counter.
func (m *Metrics) AllocatorFellBack() {
	if m != nil {
		m.allocatorFallbacks.Inc()
	}
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
