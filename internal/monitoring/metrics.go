package monitoring

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ghpa"

// Analysis outcomes
const (
	OutcomeSuccess     = "success"
	OutcomePartial     = "partial"
	OutcomeNotFound    = "not_found"
	OutcomeRateLimited = "rate_limited"
	OutcomeNetwork     = "network"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

// Metrics holds application metrics on a private Prometheus registry
type Metrics struct {
	registry  *prometheus.Registry
	StartTime time.Time

	requestCount int64
	errorCount   int64

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	githubRequests      *prometheus.CounterVec
	githubDuration      *prometheus.HistogramVec
	analyses            *prometheus.CounterVec
	analysisScore       prometheus.Histogram
}

// NewMetrics creates a new metrics instance with Go runtime and process
// collectors registered
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	auto := promauto.With(registry)

	return &Metrics{
		registry:  registry,
		StartTime: time.Now(),

		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route and status",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		githubRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "Calls to the GitHub REST API, by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		githubDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "github_request_duration_seconds",
			Help:      "GitHub REST API latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		analyses: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Profile analyses, by outcome",
		}, []string{"outcome"}),

		analysisScore: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_score",
			Help:      "Overall scores handed out",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
	}
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest records one served HTTP request
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	atomic.AddInt64(&m.requestCount, 1)
	if status >= 400 {
		atomic.AddInt64(&m.errorCount, 1)
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveGitHubRequest records one GitHub API call
func (m *Metrics) ObserveGitHubRequest(endpoint, outcome string, duration time.Duration) {
	m.githubRequests.WithLabelValues(endpoint, outcome).Inc()
	if duration > 0 {
		m.githubDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	}
}

// RecordAnalysis records an analysis outcome; score is observed only for
// successful (possibly partial) analyses
func (m *Metrics) RecordAnalysis(outcome string, score float64) {
	m.analyses.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomePartial {
		m.analysisScore.Observe(score)
	}
}

// GetStats returns a small summary for the health endpoint
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.requestCount)
	errs := atomic.LoadInt64(&m.errorCount)

	errorRate := 0.0
	if requests > 0 {
		errorRate = float64(errs) / float64(requests)
	}

	return map[string]interface{}{
		"uptime_seconds": int64(time.Since(m.StartTime).Seconds()),
		"request_count":  requests,
		"error_count":    errs,
		"error_rate":     errorRate,
	}
}
