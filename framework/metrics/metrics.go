// Package metrics provides Prometheus instrumentation for the composition
// root, the request scopes and the engine.
//
// Each Metrics value owns a private registry, so several bootstrappers can
// live in one process (tests do this constantly). Mount the handler once:
//
//	mux.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "twostep"

// Metrics holds every collector the framework records into.
type Metrics struct {
	registry *prometheus.Registry

	// InitDuration is how long Initialise took, in seconds.
	InitDuration prometheus.Gauge

	// ScopesCreated / ScopesDisposed count request scopes.
	ScopesCreated  prometheus.Counter
	ScopesDisposed prometheus.Counter

	// RequestStartups counts request startup task runs by task type.
	RequestStartups *prometheus.CounterVec

	// Requests counts engine dispatches by method and status.
	Requests *prometheus.CounterVec

	// RequestDuration tracks engine dispatch latency.
	RequestDuration *prometheus.HistogramVec

	// RequestInFlight tracks requests currently inside the engine.
	RequestInFlight prometheus.Gauge
}

// New creates a Metrics value with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		InitDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "initialise_duration_seconds",
			Help:      "Time spent composing the application container.",
		}),
		ScopesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scope",
			Name:      "created_total",
			Help:      "Request scopes created.",
		}),
		ScopesDisposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scope",
			Name:      "disposed_total",
			Help:      "Request scopes disposed.",
		}),
		RequestStartups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "request_startup_runs_total",
			Help:      "Request startup task invocations.",
		}, []string{"task"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "requests_total",
			Help:      "Requests dispatched by the engine.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "request_duration_seconds",
			Help:      "Duration of engine dispatches in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RequestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "requests_in_flight",
			Help:      "Requests currently being dispatched.",
		}),
	}

	m.registry.MustRegister(
		m.InitDuration,
		m.ScopesCreated,
		m.ScopesDisposed,
		m.RequestStartups,
		m.Requests,
		m.RequestDuration,
		m.RequestInFlight,
	)
	return m
}

// WithRuntime adds the Go runtime and process collectors.
func (m *Metrics) WithRuntime() *Metrics {
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for custom collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler exposes the metrics page.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveRequest records one engine dispatch started at start.
func (m *Metrics) ObserveRequest(method string, start time.Time, status int) {
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
