// Package metrics provides Prometheus metrics for the scoreboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Leaderboard
	scoresSubmitted   prometheus.Counter
	submitErrors      *prometheus.CounterVec
	leaderboardReads  prometheus.Counter
	leaderboardErrors *prometheus.CounterVec
	insertLatency     prometheus.Histogram
	queryLatency      prometheus.Histogram
	entriesReturned   prometheus.Histogram
	totalEntries      prometheus.Gauge

	// Store connection pool
	acquireLatency  prometheus.Histogram
	acquireTimeouts prometheus.Counter
	poolOpen        prometheus.Gauge
	poolInUse       prometheus.Gauge
	poolIdle        prometheus.Gauge
	poolWaitCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton backing the package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scoreboard",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.scoresSubmitted = auto.NewCounter(m.counterOpts("scores_submitted_total",
		"Total number of scores persisted"))
	m.submitErrors = auto.NewCounterVec(m.counterOpts("submit_errors_total",
		"Failed score submissions by error kind"), []string{"kind"})
	m.leaderboardReads = auto.NewCounter(m.counterOpts("reads_total",
		"Total number of top-N leaderboard queries served"))
	m.leaderboardErrors = auto.NewCounterVec(m.counterOpts("read_errors_total",
		"Failed top-N queries by error kind"), []string{"kind"})
	m.insertLatency = auto.NewHistogram(m.histogramOpts("insert_latency_milliseconds",
		"Latency of a single score insert in milliseconds", m.histogramBuckets))
	m.queryLatency = auto.NewHistogram(m.histogramOpts("query_latency_milliseconds",
		"Latency of the top-N ranking query in milliseconds", m.histogramBuckets))
	m.entriesReturned = auto.NewHistogram(m.histogramOpts("entries_returned",
		"Rows returned per top-N query (ties can exceed the limit)", prometheus.ExponentialBuckets(1, 2, 10)))
	m.totalEntries = auto.NewGauge(m.gaugeOpts("total_entries",
		"Number of score entries in the store"))

	m.acquireLatency = auto.NewHistogram(m.histogramOpts("store_acquire_latency_milliseconds",
		"Time spent waiting for a pooled store connection", m.histogramBuckets))
	m.acquireTimeouts = auto.NewCounter(m.counterOpts("store_acquire_timeouts_total",
		"Connection acquisitions that gave up before a connection freed up"))
	m.poolOpen = auto.NewGauge(m.gaugeOpts("store_pool_open_connections",
		"Established store connections, in use and idle"))
	m.poolInUse = auto.NewGauge(m.gaugeOpts("store_pool_in_use_connections",
		"Store connections currently checked out"))
	m.poolIdle = auto.NewGauge(m.gaugeOpts("store_pool_idle_connections",
		"Idle store connections"))
	m.poolWaitCount = auto.NewGauge(m.gaugeOpts("store_pool_wait_count",
		"Cumulative number of acquisitions that had to wait"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"Total number of HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("http_errors_total",
		"HTTP error responses by endpoint, method and error type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"Average GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordScoreSubmitted increments the persisted scores counter.
func RecordScoreSubmitted() {
	globalManager.scoresSubmitted.Inc()
}

// RecordSubmitError counts a failed submission under its error kind.
func RecordSubmitError(kind string) {
	globalManager.submitErrors.WithLabelValues(kind).Inc()
}

// RecordLeaderboardRead counts a served top-N query and its row count.
func RecordLeaderboardRead(rows int) {
	globalManager.leaderboardReads.Inc()
	globalManager.entriesReturned.Observe(float64(rows))
}

// RecordLeaderboardError counts a failed top-N query under its error kind.
func RecordLeaderboardError(kind string) {
	globalManager.leaderboardErrors.WithLabelValues(kind).Inc()
}

// RecordInsertLatency records insert latency in milliseconds.
func RecordInsertLatency(latencyMs float64) {
	globalManager.insertLatency.Observe(latencyMs)
}

// RecordQueryLatency records ranking query latency in milliseconds.
func RecordQueryLatency(latencyMs float64) {
	globalManager.queryLatency.Observe(latencyMs)
}

// UpdateTotalEntries sets the stored entry count.
func UpdateTotalEntries(count int64) {
	globalManager.totalEntries.Set(float64(count))
}

// RecordStoreAcquire records how long an acquisition waited and whether it timed out.
func RecordStoreAcquire(latencyMs float64, timedOut bool) {
	globalManager.acquireLatency.Observe(latencyMs)
	if timedOut {
		globalManager.acquireTimeouts.Inc()
	}
}

// UpdateStorePool publishes a snapshot of the connection pool.
func UpdateStorePool(open, inUse, idle int, waitCount int64) {
	globalManager.poolOpen.Set(float64(open))
	globalManager.poolInUse.Set(float64(inUse))
	globalManager.poolIdle.Set(float64(idle))
	globalManager.poolWaitCount.Set(float64(waitCount))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error response with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
