// Package metrics exposes prometheus instrumentation for model loading.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup results.
const (
	ResultHit      = "hit"
	ResultLoaded   = "loaded"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Registry holds all metrics recorded by loaders and text sources.
type Registry struct {
	// Loader metrics
	LookupsTotal       *prometheus.CounterVec
	RegistrationsTotal *prometheus.CounterVec
	LoadDuration       *prometheus.HistogramVec
	CallbacksTotal     *prometheus.CounterVec

	// Source metrics
	SourceReadsTotal *prometheus.CounterVec
	SourceBytesTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initLoaderMetrics()
	r.initSourceMetrics()
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

func (r *Registry) initLoaderMetrics() {
	r.LookupsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodekit_loader_lookups_total",
			Help: "Total number of model lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	r.RegistrationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodekit_loader_registrations_total",
			Help: "Total number of models registered on a loader",
		},
		[]string{"kind"},
	)

	r.LoadDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodekit_loader_load_duration_seconds",
			Help:    "Time spent fetching and evaluating model text",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"kind"},
	)

	r.CallbacksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodekit_loader_callbacks_total",
			Help: "Total number of load callbacks invoked",
		},
		[]string{"kind"},
	)
}

func (r *Registry) initSourceMetrics() {
	r.SourceReadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodekit_source_reads_total",
			Help: "Total number of model text reads by source and status",
		},
		[]string{"source", "status"},
	)

	r.SourceBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodekit_source_bytes_total",
			Help: "Total number of model text bytes read",
		},
		[]string{"source"},
	)
}

// RecordLookup records the outcome of a model lookup. Safe on a nil registry.
func (r *Registry) RecordLookup(kind, result string) {
	if r == nil {
		return
	}
	r.LookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordRegistration records a model registration.
func (r *Registry) RecordRegistration(kind string) {
	if r == nil {
		return
	}
	r.RegistrationsTotal.WithLabelValues(kind).Inc()
}

// ObserveLoad records how long loading a model took.
func (r *Registry) ObserveLoad(kind string, duration time.Duration) {
	if r == nil {
		return
	}
	r.LoadDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordCallback records a load callback invocation.
func (r *Registry) RecordCallback(kind string) {
	if r == nil {
		return
	}
	r.CallbacksTotal.WithLabelValues(kind).Inc()
}

// RecordSourceRead records a text read from a source.
func (r *Registry) RecordSourceRead(source, status string, bytes int) {
	if r == nil {
		return
	}
	r.SourceReadsTotal.WithLabelValues(source, status).Inc()
	if bytes > 0 {
		r.SourceBytesTotal.WithLabelValues(source).Add(float64(bytes))
	}
}
