// Package metrics provides Prometheus metrics for the trendcast forecasting service.
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
	trainingBuckets  []float64
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec
	panicsRecovered     prometheus.Counter

	// Modeling
	modelTrainings   *prometheus.CounterVec
	trainingDuration *prometheus.HistogramVec
	forecasts        *prometheus.CounterVec
	modelCacheHits   prometheus.Counter
	modelCacheMisses prometheus.Counter
	cachedModels     prometheus.Gauge

	// Dataset
	datasetLoads *prometheus.CounterVec
	datasetRows  prometheus.Gauge

	// Warm-up
	warmupJobs      *prometheus.CounterVec
	warmupQueueSize prometheus.Gauge
	warmupWorkers   prometheus.Gauge

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trendcast",
		subsystem:        "forecast",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		trainingBuckets:  []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Errors returned per endpoint and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorsByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.panicsRecovered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "panics_recovered_total",
		Help:      "Handler panics turned into JSON 500 responses",
	})

	m.modelTrainings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_trainings_total",
		Help:      "Model fits by sport, model kind, strategy, purpose and outcome",
	}, []string{"sport", "model_kind", "strategy", "purpose", "outcome"})

	m.trainingDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_training_duration_milliseconds",
		Help:      "Model fit duration in milliseconds",
		Buckets:   m.trainingBuckets,
	}, []string{"sport", "model_kind", "strategy"})

	m.forecasts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "forecasts_total",
		Help:      "Forecasts produced by sport and model kind",
	}, []string{"sport", "model_kind"})

	m.modelCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_cache_hits_total",
		Help:      "Predict requests served by an already trained model",
	})

	m.modelCacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_cache_misses_total",
		Help:      "Predict requests that had to train a model",
	})

	m.cachedModels = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cached_models",
		Help:      "Number of trained models held in memory",
	})

	m.datasetLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_loads_total",
		Help:      "Dataset parse attempts by outcome",
	}, []string{"outcome"})

	m.datasetRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dataset_rows",
		Help:      "Number of monthly rows in the loaded dataset",
	})

	m.warmupJobs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "warmup_jobs_total",
		Help:      "Warm-up training jobs by outcome",
	}, []string{"outcome"})

	m.warmupQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "warmup_queue_size",
		Help:      "Warm-up jobs waiting for a worker",
	})

	m.warmupWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "warmup_workers",
		Help:      "Warm-up workers currently running",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordPanicRecovered increments the recovered panic counter.
func RecordPanicRecovered() {
	globalManager.panicsRecovered.Inc()
}

// RecordModelTraining counts one fit. purpose is "serve" or "backtest".
func RecordModelTraining(sport, kind, strategy, purpose, outcome string) {
	globalManager.modelTrainings.WithLabelValues(sport, kind, strategy, purpose, outcome).Inc()
}

// RecordTrainingDuration records a fit duration in milliseconds.
func RecordTrainingDuration(sport, kind, strategy string, durationMs float64) {
	globalManager.trainingDuration.WithLabelValues(sport, kind, strategy).Observe(durationMs)
}

// RecordForecast counts a produced forecast.
func RecordForecast(sport, kind string) {
	globalManager.forecasts.WithLabelValues(sport, kind).Inc()
}

// RecordModelCacheHit increments the model cache hit counter.
func RecordModelCacheHit() {
	globalManager.modelCacheHits.Inc()
}

// RecordModelCacheMiss increments the model cache miss counter.
func RecordModelCacheMiss() {
	globalManager.modelCacheMisses.Inc()
}

// UpdateCachedModels sets the number of cached models.
func UpdateCachedModels(count int) {
	globalManager.cachedModels.Set(float64(count))
}

// RecordDatasetLoad counts a dataset parse attempt.
func RecordDatasetLoad(outcome string) {
	globalManager.datasetLoads.WithLabelValues(outcome).Inc()
}

// UpdateDatasetRows sets the number of rows in the cached dataset.
func UpdateDatasetRows(rows int) {
	globalManager.datasetRows.Set(float64(rows))
}

// RecordWarmupJob counts a finished warm-up job.
func RecordWarmupJob(outcome string) {
	globalManager.warmupJobs.WithLabelValues(outcome).Inc()
}

// UpdateWarmupQueueSize sets the number of queued warm-up jobs.
func UpdateWarmupQueueSize(size int) {
	globalManager.warmupQueueSize.Set(float64(size))
}

// UpdateWarmupWorkers sets the number of running warm-up workers.
func UpdateWarmupWorkers(count int) {
	globalManager.warmupWorkers.Set(float64(count))
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
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
