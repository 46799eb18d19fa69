// Package system holds the health, metrics and maintenance services.
package system

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"norelock.dev/reelid/backend/internal/utils"
)

// MetricsService owns every Prometheus collector the application exports.
// All collectors carry the reelid_ prefix.
type MetricsService struct {
	logger *utils.Logger

	// HTTP
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	httpRequestsInProgress *prometheus.GaugeVec

	// Identification
	identifyRequestsTotal *prometheus.CounterVec
	identifyDuration      *prometheus.HistogramVec
	identifyResultCount   prometheus.Histogram

	// Uploads
	uploadsTotal    *prometheus.CounterVec
	uploadSizeBytes prometheus.Histogram

	// Web search
	webSearchesTotal     prometheus.Counter
	webSearchErrorsTotal prometheus.Counter

	// Users and sessions
	usersTotal        prometheus.Gauge
	sessionsActive    prometheus.Gauge
	userRegistrations prometheus.Counter
	userLogins        prometheus.Counter

	// Process
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	maintenanceTasks  *prometheus.CounterVec
}

func newCounter(name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
}

func newGauge(name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
}

func newHistogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
}

func newHistogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
}

// NewMetricsService registers all collectors on the default registry and
// returns the service. Calling it twice in one process panics, promauto
// rejects duplicate registration.
func NewMetricsService(logger *utils.Logger) *MetricsService {
	m := &MetricsService{logger: logger.Named("metrics_service")}

	m.httpRequestsTotal = newCounterVec("reelid_http_requests_total",
		"Total number of HTTP requests", "method", "path", "status")
	m.httpRequestDuration = newHistogramVec("reelid_http_request_duration_seconds",
		"Duration of HTTP requests in seconds", prometheus.DefBuckets, "method", "path")
	// Labeled by method only: the route pattern is not known until the
	// request has been routed.
	m.httpRequestsInProgress = newGaugeVec("reelid_http_requests_in_progress",
		"Number of HTTP requests currently in progress", "method")

	m.identifyRequestsTotal = newCounterVec("reelid_identify_requests_total",
		"Total number of identification requests by kind, provider and result source",
		"kind", "provider", "source")
	m.identifyDuration = newHistogramVec("reelid_identify_duration_seconds",
		"Provider round-trip time for identification requests in seconds",
		prometheus.ExponentialBuckets(0.1, 2, 10), "provider")
	m.identifyResultCount = newHistogram("reelid_identify_result_count",
		"Number of matches returned per identification request",
		prometheus.LinearBuckets(0, 1, 11))

	m.uploadsTotal = newCounterVec("reelid_uploads_total",
		"Total number of identification uploads by kind", "kind")
	m.uploadSizeBytes = newHistogram("reelid_upload_size_bytes",
		"Size of identification uploads in bytes",
		prometheus.ExponentialBuckets(1024, 4, 10))

	m.webSearchesTotal = newCounter("reelid_web_searches_total",
		"Total number of web searches")
	m.webSearchErrorsTotal = newCounter("reelid_web_search_errors_total",
		"Total number of failed web searches")

	m.usersTotal = newGauge("reelid_users_total",
		"Total number of registered users")
	m.sessionsActive = newGauge("reelid_sessions_active",
		"Number of live sessions")
	m.userRegistrations = newCounter("reelid_user_registrations_total",
		"Total number of user registrations")
	m.userLogins = newCounter("reelid_user_logins_total",
		"Total number of user logins")

	m.systemMemoryUsage = newGauge("reelid_system_memory_usage_bytes",
		"Memory usage in bytes")
	m.systemGoroutines = newGauge("reelid_system_goroutines",
		"Number of goroutines")
	m.maintenanceTasks = newCounterVec("reelid_maintenance_tasks_total",
		"Total number of maintenance task runs by outcome", "task", "status")

	return m
}

// Handler returns an HTTP handler for exposing metrics.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records one finished HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, http.StatusText(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncHTTPRequestsInProgress increments the in-progress HTTP requests gauge.
func (m *MetricsService) IncHTTPRequestsInProgress(method string) {
	m.httpRequestsInProgress.WithLabelValues(method).Inc()
}

// DecHTTPRequestsInProgress decrements the in-progress HTTP requests gauge.
func (m *MetricsService) DecHTTPRequestsInProgress(method string) {
	m.httpRequestsInProgress.WithLabelValues(method).Dec()
}

// ObserveIdentification records one identification request. An empty provider
// is reported under the label "none".
func (m *MetricsService) ObserveIdentification(kind, provider, source string, duration time.Duration, resultCount int) {
	if provider == "" {
		provider = "none"
	}
	m.identifyRequestsTotal.WithLabelValues(kind, provider, source).Inc()
	m.identifyDuration.WithLabelValues(provider).Observe(duration.Seconds())
	m.identifyResultCount.Observe(float64(resultCount))
}

// ObserveUpload records one identification upload.
func (m *MetricsService) ObserveUpload(kind string, sizeBytes int64) {
	m.uploadsTotal.WithLabelValues(kind).Inc()
	m.uploadSizeBytes.Observe(float64(sizeBytes))
}

// IncWebSearches increments the web searches counter.
func (m *MetricsService) IncWebSearches() {
	m.webSearchesTotal.Inc()
}

// IncWebSearchErrors increments the failed web searches counter.
func (m *MetricsService) IncWebSearchErrors() {
	m.webSearchErrorsTotal.Inc()
}

// SetUsersTotal sets the total number of registered users.
func (m *MetricsService) SetUsersTotal(count int64) {
	m.usersTotal.Set(float64(count))
}

// SetSessionsActive sets the number of live sessions.
func (m *MetricsService) SetSessionsActive(count int64) {
	m.sessionsActive.Set(float64(count))
}

// IncUserRegistrations increments the user registrations counter.
func (m *MetricsService) IncUserRegistrations() {
	m.userRegistrations.Inc()
}

// IncUserLogins increments the user logins counter.
func (m *MetricsService) IncUserLogins() {
	m.userLogins.Inc()
}

// SetSystemMemoryUsage sets the process memory usage gauge.
func (m *MetricsService) SetSystemMemoryUsage(bytes uint64) {
	m.systemMemoryUsage.Set(float64(bytes))
}

// SetSystemGoroutines sets the goroutine count gauge.
func (m *MetricsService) SetSystemGoroutines(count int) {
	m.systemGoroutines.Set(float64(count))
}

// ObserveMaintenanceTask records the outcome of one maintenance task run.
func (m *MetricsService) ObserveMaintenanceTask(task string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.maintenanceTasks.WithLabelValues(task, status).Inc()
}
