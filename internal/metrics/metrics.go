package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeError       = "error"
)

// Metrics holds the classification service counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	FacesDetected   atomic.Uint64
	FacesRejected   atomic.Uint64
	FacesClassified atomic.Uint64
	CacheHits       atomic.Uint64
	CacheMisses     atomic.Uint64
	HistoryStored   atomic.Uint64
	LiveClients     atomic.Int64

	requests *prometheus.CounterVec
	latency  prometheus.Histogram
	labels   *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifier_requests_total",
			Help: "Classification requests by outcome",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "classifier_request_duration_seconds",
			Help:    "End to end classification latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		labels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifier_predictions_total",
			Help: "Predicted faces by label",
		}, []string{"label"}),
	}

	m.registry.MustRegister(m.requests, m.latency, m.labels)
	m.registerGauges()
	return m
}

func (m *Metrics) registerGauges() {
	gauges := []struct {
		name, help string
		fn         func() float64
	}{
		{"classifier_faces_detected_total", "Candidate faces returned by the face detector", func() float64 { return float64(m.FacesDetected.Load()) }},
		{"classifier_faces_rejected_total", "Candidate faces dropped by the eye gate", func() float64 { return float64(m.FacesRejected.Load()) }},
		{"classifier_faces_classified_total", "Faces that produced a result", func() float64 { return float64(m.FacesClassified.Load()) }},
		{"classifier_cache_hits_total", "Result cache hits", func() float64 { return float64(m.CacheHits.Load()) }},
		{"classifier_cache_misses_total", "Result cache misses", func() float64 { return float64(m.CacheMisses.Load()) }},
		{"classifier_history_stored_total", "Classification records written to the history store", func() float64 { return float64(m.HistoryStored.Load()) }},
		{"classifier_live_clients", "Connected live feed clients", func() float64 { return float64(m.LiveClients.Load()) }},
	}
	for _, g := range gauges {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: g.name, Help: g.help}, g.fn))
	}
}

// ObserveRequest records one request's outcome and duration.
func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.latency.Observe(d.Seconds())
}

// ObserveLocalization records detector output for one image.
func (m *Metrics) ObserveLocalization(candidates, accepted int) {
	if m == nil {
		return
	}
	m.FacesDetected.Add(uint64(candidates))
	if candidates > accepted {
		m.FacesRejected.Add(uint64(candidates - accepted))
	}
}

// ObservePrediction counts one classified face.
func (m *Metrics) ObservePrediction(label string) {
	if m == nil {
		return
	}
	m.FacesClassified.Add(1)
	m.labels.WithLabelValues(label).Inc()
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Add(1)
	} else {
		m.CacheMisses.Add(1)
	}
}

// ObserveHistory counts stored history records.
func (m *Metrics) ObserveHistory(n int) {
	if m == nil {
		return
	}
	m.HistoryStored.Add(uint64(n))
}

// SetLiveClients updates the connected live-feed client gauge.
func (m *Metrics) SetLiveClients(n int) {
	if m == nil {
		return
	}
	m.LiveClients.Store(int64(n))
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the Prometheus HTTP handler, or 404 for a nil Metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
