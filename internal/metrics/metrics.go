// Package metrics holds the Prometheus collectors for the API, the
// simulation pipeline and the upstream collaborators.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "asteroid_impact"

type Metrics struct {
	HTTPRequests *prometheus.CounterVec   // labels: path, method, code
	HTTPDuration *prometheus.HistogramVec // labels: path, method

	Simulations        *prometheus.CounterVec // labels: source={direct,nasa}, outcome
	ImpactEnergy       prometheus.Histogram
	EnrichmentFailures prometheus.Counter

	UpstreamRequests *prometheus.CounterVec   // labels: upstream, method, outcome={success,error,empty}
	UpstreamDuration *prometheus.HistogramVec // labels: upstream, method
	CacheLookups     *prometheus.CounterVec   // labels: cache, result={hit,miss}

	FeedRecordsSynced *prometheus.CounterVec // labels: result={new,refreshed}

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. Passing
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"path", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		Simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Impact simulations by parameter source and outcome.",
		}, []string{"source", "outcome"}),
		ImpactEnergy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "impact_energy_megatons",
			Help:      "Kinetic energy of simulated impacts in megatons TNT.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 10, 12),
		}),
		EnrichmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Place-name enrichments dropped after a geocoding failure.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests to external collaborators by upstream, method and outcome.",
		}, []string{"upstream", "method", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "External collaborator request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"upstream", "method"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		FeedRecordsSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_records_synced_total",
			Help:      "Asteroid records written to the catalog cache by the feed sync.",
		}, []string{"result"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Simulations,
		m.ImpactEnergy,
		m.EnrichmentFailures,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.FeedRecordsSynced,
	)

	return m
}

// NewForTesting returns metrics bound to a throwaway registry.
func NewForTesting() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry the metrics were created with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count and duration. Unmatched routes are
// grouped under one label to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		code := strconv.Itoa(c.Writer.Status())
		m.HTTPRequests.WithLabelValues(path, c.Request.Method, code).Inc()
		m.HTTPDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// The helpers below tolerate a nil *Metrics so collaborators can run
// without instrumentation.

func (m *Metrics) ObserveUpstream(upstream, method, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(upstream, method, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(upstream, method).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) ObserveSimulation(source, outcome string, megatons float64) {
	if m == nil {
		return
	}
	m.Simulations.WithLabelValues(source, outcome).Inc()
	if outcome == "success" {
		m.ImpactEnergy.Observe(megatons)
	}
}

func (m *Metrics) IncEnrichmentFailure() {
	if m == nil {
		return
	}
	m.EnrichmentFailures.Inc()
}

func (m *Metrics) ObserveFeedRecord(isNew bool) {
	if m == nil {
		return
	}
	result := "refreshed"
	if isNew {
		result = "new"
	}
	m.FeedRecordsSynced.WithLabelValues(result).Inc()
}
