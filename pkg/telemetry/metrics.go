package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolve outcome labels.
const (
	ResolveValue       = "value"
	ResolveUnavailable = "unavailable"
	ResolveCycle       = "cycle"
	ResolveFault       = "fault"
)

// Metrics provides Prometheus metrics for the analysis core.
type Metrics struct {
	config MetricsConfig

	// Resolution metrics
	resolvesCompleted *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	computeDuration   *prometheus.HistogramVec
	computeFaults     prometheus.Counter

	// Session metrics
	sessionsActive prometheus.Gauge

	// Import metrics
	importsCompleted *prometheus.CounterVec
	importDuration   prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		resolvesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolves_completed_total",
				Help:      "Total number of key resolutions by terminal outcome",
			},
			[]string{"outcome"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of session cache hits",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of session cache misses",
			},
		),
		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compute_duration_seconds",
				Help:      "Duration of producer compute calls in seconds",
				Buckets:   buckets,
			},
			[]string{"key"},
		),
		computeFaults: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compute_faults_total",
				Help:      "Total number of recovered producer panics",
			},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Current number of open sessions",
			},
		),
		importsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_completed_total",
				Help:      "Total number of session file imports",
			},
			[]string{"format", "status"},
		),
		importDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "import_duration_seconds",
				Help:      "Duration of session file imports in seconds",
				Buckets:   buckets,
			},
		),
	}

	collectors := []prometheus.Collector{
		m.resolvesCompleted,
		m.cacheHits,
		m.cacheMisses,
		m.computeDuration,
		m.computeFaults,
		m.sessionsActive,
		m.importsCompleted,
		m.importDuration,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// ResolveCompleted records a terminal resolution outcome.
func (m *Metrics) ResolveCompleted(outcome string) {
	if m.resolvesCompleted != nil {
		m.resolvesCompleted.WithLabelValues(outcome).Inc()
	}
}

// CacheHit records a session cache hit.
func (m *Metrics) CacheHit() {
	if m.cacheHits != nil {
		m.cacheHits.Inc()
	}
}

// CacheMiss records a session cache miss.
func (m *Metrics) CacheMiss() {
	if m.cacheMisses != nil {
		m.cacheMisses.Inc()
	}
}

// ObserveCompute records the duration of a producer compute call.
func (m *Metrics) ObserveCompute(key string, seconds float64) {
	if m.computeDuration != nil {
		m.computeDuration.WithLabelValues(key).Observe(seconds)
	}
}

// ComputeFault records a recovered producer panic.
func (m *Metrics) ComputeFault() {
	if m.computeFaults != nil {
		m.computeFaults.Inc()
	}
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m.sessionsActive != nil {
		m.sessionsActive.Inc()
	}
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m.sessionsActive != nil {
		m.sessionsActive.Dec()
	}
}

// ImportCompleted records a finished file import.
func (m *Metrics) ImportCompleted(format, status string, duration time.Duration) {
	if m.importsCompleted != nil {
		m.importsCompleted.WithLabelValues(format, status).Inc()
		m.importDuration.Observe(duration.Seconds())
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics HTTP server. Blocks until the server stops.
func (m *Metrics) Serve() error {
	if !m.config.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, m.Handler())
	return http.ListenAndServe(m.config.ListenAddress, mux)
}
