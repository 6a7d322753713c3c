package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Analysis Metrics
	AnalysesTotal         *prometheus.CounterVec
	AnalysisDuration      prometheus.Histogram
	ValidationErrorsTotal *prometheus.CounterVec
	ConfidenceScore       prometheus.Histogram
	RecommendationsTotal  *prometheus.CounterVec

	// Weather Metrics
	WeatherRequestsTotal   *prometheus.CounterVec
	WeatherRequestDuration prometheus.Histogram

	// Publisher Metrics
	PublishTotal *prometheus.CounterVec

	// Database Metrics
	DBQueryDuration  *prometheus.HistogramVec
	DBConnectionPool *prometheus.GaugeVec
	DBErrorsTotal    *prometheus.CounterVec

	// System Metrics
	ProcessingTimeMS  *prometheus.HistogramVec
	ActiveConnections prometheus.Gauge
}

// NewCollector creates a new metrics collector registered on reg.
// A nil reg registers on the default Prometheus registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pond_analyses_total",
				Help:      "Total number of pond analyses by outcome",
			},
			[]string{"outcome"}, // "ok", "invalid", "error"
		),

		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pond_analysis_duration_seconds",
				Help:      "End-to-end duration of a pond analysis including weather lookup and storage",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),

		ValidationErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pond_validation_errors_total",
				Help:      "Total number of rejected pond parameters by field",
			},
			[]string{"field"},
		),

		ConfidenceScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pond_analysis_confidence_score",
				Help:      "Distribution of confidence scores attached to analyses",
				Buckets:   []float64{40, 50, 60, 70, 80, 90, 100},
			},
		),

		RecommendationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pond_recommendations_total",
				Help:      "Total number of recommendations issued by priority",
			},
			[]string{"priority"},
		),

		WeatherRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weather_requests_total",
				Help:      "Total number of weather provider lookups by result",
			},
			[]string{"result"}, // "ok", "unavailable", "disabled"
		),

		WeatherRequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "weather_request_duration_seconds",
				Help:      "Weather provider lookup duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),

		PublishTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_publish_total",
				Help:      "Total number of analysis reports published to the broker by result",
			},
			[]string{"result"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds by query type",
				Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
			},
			[]string{"query_type"},
		),

		DBConnectionPool: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"state"}, // "in_use", "idle", "total"
		),

		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Total number of database errors by type",
			},
			[]string{"error_type"},
		),

		ProcessingTimeMS: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "processing_time_milliseconds",
				Help:      "Processing time in milliseconds by operation",
				Buckets:   []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
			},
			[]string{"operation"}, // "validate", "weather", "analyze", "store"
		),

		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_connections",
				Help:      "Number of in-flight HTTP requests",
			},
		),
	}
}

// NewTestCollector returns a collector on a private registry
func NewTestCollector() *Collector {
	return NewCollector("test", prometheus.NewRegistry())
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordAnalysis counts a finished analysis attempt
func (c *Collector) RecordAnalysis(outcome string) {
	c.AnalysesTotal.WithLabelValues(outcome).Inc()
}

// RecordValidationError counts a rejected field
func (c *Collector) RecordValidationError(field string) {
	c.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordRecommendation counts an issued recommendation
func (c *Collector) RecordRecommendation(priority string) {
	c.RecommendationsTotal.WithLabelValues(priority).Inc()
}

// RecordWeatherRequest counts a weather lookup
func (c *Collector) RecordWeatherRequest(result string) {
	c.WeatherRequestsTotal.WithLabelValues(result).Inc()
}

// RecordPublish counts a broker publish attempt
func (c *Collector) RecordPublish(result string) {
	c.PublishTotal.WithLabelValues(result).Inc()
}

// RecordProcessingTime observes one pipeline stage in milliseconds
func (c *Collector) RecordProcessingTime(operation string, elapsed time.Duration) {
	c.ProcessingTimeMS.WithLabelValues(operation).Observe(float64(elapsed.Microseconds()) / 1000)
}

// RecordDBError increments database error counter
func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

// UpdateDBConnectionPool updates database connection pool metrics
func (c *Collector) UpdateDBConnectionPool(inUse, idle, total int) {
	c.DBConnectionPool.WithLabelValues("in_use").Set(float64(inUse))
	c.DBConnectionPool.WithLabelValues("idle").Set(float64(idle))
	c.DBConnectionPool.WithLabelValues("total").Set(float64(total))
}
