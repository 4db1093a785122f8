// Package metrics holds the Prometheus instruments of the NVR.
//
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	spawnsTotal           *prometheus.CounterVec
	exitsTotal            *prometheus.CounterVec
	fragmentsTotal        *prometheus.CounterVec
	segmentsTotal         *prometheus.CounterVec
	snapshotFailuresTotal *prometheus.CounterVec
	viewers               *prometheus.GaugeVec
	requestsTotal         prometheus.Counter
	errorsTotal           prometheus.Counter
}

// New creates and registers the NVR metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		spawnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nvr_encoder_spawns_total",
			Help: "Encoder processes started, per camera",
		}, []string{"camera"}),
		exitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nvr_encoder_exits_total",
			Help: "Encoder process exits, per camera and exit class",
		}, []string{"camera", "class"}),
		fragmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nvr_live_fragments_total",
			Help: "Live fragments broadcast, per camera",
		}, []string{"camera"}),
		segmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nvr_segments_completed_total",
			Help: "Recorded segments completed, per camera",
		}, []string{"camera"}),
		snapshotFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nvr_snapshot_failures_total",
			Help: "Snapshot captures that failed, per camera",
		}, []string{"camera"}),
		viewers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nvr_live_viewers",
			Help: "Connected live viewers, per camera",
		}, []string{"camera"}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nvr_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nvr_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
	}

	registry.MustRegister(
		m.spawnsTotal,
		m.exitsTotal,
		m.fragmentsTotal,
		m.segmentsTotal,
		m.snapshotFailuresTotal,
		m.viewers,
		m.requestsTotal,
		m.errorsTotal,
	)
	return m
}

func (m *Metrics) IncSpawns(camera string) {
	if m == nil {
		return
	}
	m.spawnsTotal.WithLabelValues(camera).Inc()
}

func (m *Metrics) IncExits(camera, class string) {
	if m == nil {
		return
	}
	m.exitsTotal.WithLabelValues(camera, class).Inc()
}

func (m *Metrics) IncFragments(camera string) {
	if m == nil {
		return
	}
	m.fragmentsTotal.WithLabelValues(camera).Inc()
}

func (m *Metrics) IncSegments(camera string) {
	if m == nil {
		return
	}
	m.segmentsTotal.WithLabelValues(camera).Inc()
}

func (m *Metrics) IncSnapshotFailures(camera string) {
	if m == nil {
		return
	}
	m.snapshotFailuresTotal.WithLabelValues(camera).Inc()
}

func (m *Metrics) SetViewers(camera string, n int) {
	if m == nil {
		return
	}
	m.viewers.WithLabelValues(camera).Set(float64(n))
}

func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves the registry.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}
