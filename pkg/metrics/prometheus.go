// Package metrics provides Prometheus metrics for the sonification pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Input metrics
	rowsLoaded  prometheus.Counter
	rowsDropped prometheus.Counter

	// Mapping metrics
	yearsProcessed prometheus.Counter
	notesEmitted   *prometheus.CounterVec // by layer
	ccsEmitted     prometheus.Counter
	mappingLatency prometheus.Histogram
	voiceCacheSize prometheus.Gauge
	sparseYears    prometheus.Counter

	// Fan-out metrics
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge
	workerErrors  prometheus.Counter

	// Export metrics
	artifactBytes *prometheus.CounterVec // by artifact
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithMetricsEnabled enables or disables metrics collection.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// Global metrics manager instance on a custom registry, so the default Go
// collectors do not pollute the pipeline's metric set.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ecotone",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.rowsLoaded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rows_loaded_total", Help: "Aggregated observation rows accepted from the input table.",
	})
	m.rowsDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rows_dropped_total", Help: "Malformed input rows dropped before reaching the core.",
	})
	m.yearsProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "years_processed_total", Help: "Year segments mapped to music.",
	})
	m.notesEmitted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notes_emitted_total", Help: "Note events emitted, by layer.",
	}, []string{"layer"})
	m.ccsEmitted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "cc_events_emitted_total", Help: "Control-change events emitted.",
	})
	m.mappingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "year_mapping_duration_seconds", Help: "Wall time to map one year.",
		Buckets: m.histogramBuckets,
	})
	m.voiceCacheSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "voice_cache_size", Help: "Distinct species with assigned voices.",
	})
	m.sparseYears = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sparse_years_total", Help: "Years with zero observation rows (drone-only output).",
	})
	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "job_queue_size", Help: "Year jobs currently queued.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "job_queue_capacity", Help: "Configured job queue capacity.",
	})
	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count", Help: "Mapping workers running.",
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total", Help: "Worker-level processing errors.",
	})
	m.artifactBytes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "artifact_bytes_total", Help: "Serialized artifact bytes written, by artifact.",
	}, []string{"artifact"})
}

// Handler returns an HTTP handler serving this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level helpers against the global manager.

// Handler serves the global metrics registry.
func Handler() http.Handler { return globalManager.Handler() }

// RecordRowsLoaded counts accepted input rows.
func RecordRowsLoaded(n int) {
	if globalManager.enabled {
		globalManager.rowsLoaded.Add(float64(n))
	}
}

// RecordRowDropped counts one malformed input row.
func RecordRowDropped() {
	if globalManager.enabled {
		globalManager.rowsDropped.Inc()
	}
}

// RecordYearProcessed counts one mapped year.
func RecordYearProcessed() {
	if globalManager.enabled {
		globalManager.yearsProcessed.Inc()
	}
}

// RecordNotesEmitted counts note events for a layer.
func RecordNotesEmitted(layer string, n int) {
	if globalManager.enabled {
		globalManager.notesEmitted.WithLabelValues(layer).Add(float64(n))
	}
}

// RecordCCsEmitted counts control-change events.
func RecordCCsEmitted(n int) {
	if globalManager.enabled {
		globalManager.ccsEmitted.Add(float64(n))
	}
}

// RecordMappingLatency observes the wall time of one year's mapping.
func RecordMappingLatency(seconds float64) {
	if globalManager.enabled {
		globalManager.mappingLatency.Observe(seconds)
	}
}

// UpdateVoiceCacheSize tracks the species voice cache.
func UpdateVoiceCacheSize(n int) {
	if globalManager.enabled {
		globalManager.voiceCacheSize.Set(float64(n))
	}
}

// RecordSparseYear counts a year with no observation rows.
func RecordSparseYear() {
	if globalManager.enabled {
		globalManager.sparseYears.Inc()
	}
}

// UpdateQueueSize tracks queued year jobs.
func UpdateQueueSize(n int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(n))
	}
}

// UpdateQueueCapacity records the configured queue capacity.
func UpdateQueueCapacity(n int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(n))
	}
}

// UpdateWorkerCount tracks running mapping workers.
func UpdateWorkerCount(n int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(n))
	}
}

// RecordWorkerError counts one worker-level failure.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// RecordArtifactBytes counts serialized output bytes for an artifact.
func RecordArtifactBytes(artifact string, n int) {
	if globalManager.enabled {
		globalManager.artifactBytes.WithLabelValues(artifact).Add(float64(n))
	}
}
