package sources

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the source clients. A nil *Metrics is valid and
// turns every method into a no-op, which keeps tests quiet.
type Metrics struct {
	Registry *prometheus.Registry

	searches  *prometheus.CounterVec
	listings  *prometheus.CounterVec
	durations prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricescout_source_searches_total",
		Help: "Search attempts per source, tier and outcome.",
	}, []string{"source", "tier", "outcome"})

	m.listings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricescout_source_listings_total",
		Help: "Raw listings returned per source.",
	}, []string{"source"})

	m.durations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricescout_source_request_seconds",
		Help:    "Outbound marketplace request latency.",
		Buckets: prometheus.DefBuckets,
	})

	m.Registry.MustRegister(m.searches, m.listings, m.durations)
	return m
}

func (m *Metrics) IncSearch(source, tier, outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(source, tier, outcome).Inc()
}

func (m *Metrics) AddListings(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.listings.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.durations.Observe(d.Seconds())
}
