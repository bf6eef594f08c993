// Package metrics exports server counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tickarena"

// Metrics holds the server's collectors on a private registry, so several
// servers (tests) can coexist in one process.
type Metrics struct {
	reg *prometheus.Registry

	Players        prometheus.Gauge
	TickDuration   *prometheus.HistogramVec
	Evictions      prometheus.Counter
	SnapshotBytes  prometheus.Counter
	RejectedFrames *prometheus.CounterVec
	DroppedSends   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Players: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players",
			Help:      "Players currently in the arena.",
		}),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent running the systems of one phase.",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05},
		}, []string{"phase"}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeat_evictions_total",
			Help:      "Connections closed by the liveness sweep.",
		}),
		SnapshotBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes_total",
			Help:      "Snapshot bytes queued for delivery, summed over recipients.",
		}),
		RejectedFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_frames_total",
			Help:      "Inbound frames that failed to decode or dispatch.",
		}, []string{"kind"}),
		DroppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_sends_total",
			Help:      "Outbound messages dropped on a full send queue.",
		}),
	}
	m.reg.MustRegister(
		m.Players, m.TickDuration, m.Evictions,
		m.SnapshotBytes, m.RejectedFrames, m.DroppedSends,
	)
	return m
}

// ObservePhase records how long one phase of a tick took.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.TickDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
