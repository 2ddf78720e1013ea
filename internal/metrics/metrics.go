// Package metrics holds the Prometheus instruments for the aggregation
// pipeline, the sweep job and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newswire"

// Metrics holds all newswire Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Source adapter metrics
	SourceFetchDuration *prometheus.HistogramVec
	SourceFailures      *prometheus.CounterVec
	SourceArticles      *prometheus.CounterVec

	// Pipeline metrics
	DedupeDropped prometheus.Counter
	Classified    *prometheus.CounterVec

	// Sweep metrics
	SweepRuns     *prometheus.CounterVec
	SweepStored   prometheus.Counter
	SweepDuration prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers every metric on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}
	f := promauto.With(reg)
	initSourceMetrics(f, m)
	initPipelineMetrics(f, m)
	initSweepMetrics(f, m)
	initHTTPMetrics(f, m)
	return m
}

func initSourceMetrics(f promauto.Factory, m *Metrics) {
	m.SourceFetchDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_fetch_duration_seconds",
		Help:      "Time spent fetching from a source adapter",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"source"})

	m.SourceFailures = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_failures_total",
		Help:      "Source adapter fetches that failed, timed out or panicked",
	}, []string{"source"})

	m.SourceArticles = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_articles_total",
		Help:      "Articles returned by each source adapter",
	}, []string{"source"})
}

func initPipelineMetrics(f promauto.Factory, m *Metrics) {
	m.DedupeDropped = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dedupe_dropped_total",
		Help:      "Articles removed as near-duplicates",
	})

	m.Classified = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classified_total",
		Help:      "Articles by assigned category",
	}, []string{"category"})
}

func initSweepMetrics(f promauto.Factory, m *Metrics) {
	m.SweepRuns = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_runs_total",
		Help:      "Completed sweep runs by outcome",
	}, []string{"outcome"})

	m.SweepStored = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_stored_total",
		Help:      "New articles persisted by sweeps",
	})

	m.SweepDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Wall time of a sweep run",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
	})
}

func initHTTPMetrics(f promauto.Factory, m *Metrics) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status",
	}, []string{"route", "method", "status"})

	m.HTTPDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSourceFetch records one adapter call. A non-nil err counts as a
// failure and n is ignored.
func (m *Metrics) RecordSourceFetch(source string, n int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		m.SourceFailures.WithLabelValues(source).Inc()
		return
	}
	m.SourceArticles.WithLabelValues(source).Add(float64(n))
}

// RecordDedupe records how many articles deduplication removed.
func (m *Metrics) RecordDedupe(before, after int) {
	if m == nil || before <= after {
		return
	}
	m.DedupeDropped.Add(float64(before - after))
}

// RecordCategory increments the counter for an assigned category.
func (m *Metrics) RecordCategory(category string) {
	if m == nil {
		return
	}
	m.Classified.WithLabelValues(category).Inc()
}

// RecordSweep records a finished sweep.
func (m *Metrics) RecordSweep(stored int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.SweepRuns.WithLabelValues(outcome).Inc()
	m.SweepStored.Add(float64(stored))
	m.SweepDuration.Observe(duration.Seconds())
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(route, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}
