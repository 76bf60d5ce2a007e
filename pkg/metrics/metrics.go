package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medminion"

// Metrics owns a dedicated registry so several instances can coexist in one process.
// All recording methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	appointmentOps  *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	cacheRequests   *prometheus.CounterVec
	reconcileFlips  *prometheus.CounterVec
	overbookedSlots prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		appointmentOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_operations_total",
			Help:      "Appointment operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_cache_requests_total",
			Help:      "Availability cache lookups by result.",
		}, []string{"result"}),
		reconcileFlips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_marker_flips_total",
			Help:      "Markers flipped by grid reconciliation.",
		}, []string{"direction"}),
		overbookedSlots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_overbooked_slots_total",
			Help:      "Slots found with more scheduled appointments than capacity.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.appointmentOps,
		m.httpRequests,
		m.httpDuration,
		m.cacheRequests,
		m.reconcileFlips,
		m.overbookedSlots,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) AppointmentOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.appointmentOps.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) HTTPRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) ReconcileFlips(occupied, freed int) {
	if m == nil {
		return
	}
	m.reconcileFlips.WithLabelValues("occupy").Add(float64(occupied))
	m.reconcileFlips.WithLabelValues("free").Add(float64(freed))
}

func (m *Metrics) OverbookedSlot() {
	if m == nil {
		return
	}
	m.overbookedSlots.Inc()
}
