package backupmgr

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the snapshot counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SnapshotsTotal   prometheus.Counter
	SnapshotFailures *prometheus.CounterVec
	PendingSaves     prometheus.Gauge
	SnapshotDuration prometheus.Histogram
	LastArchiveBytes prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "savesnap",
			Name:      "snapshots_total",
			Help:      "Snapshots archived successfully.",
		}),
		SnapshotFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "savesnap",
			Name:      "snapshot_failures_total",
			Help:      "Snapshots that failed, by pipeline stage.",
		}, []string{"stage"}),
		PendingSaves: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "savesnap",
			Name:      "pending_saves",
			Help:      "Saves changed recently and waiting for the grace period.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "savesnap",
			Name:      "snapshot_duration_seconds",
			Help:      "Time spent copying and compressing one save.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		LastArchiveBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "savesnap",
			Name:      "last_archive_bytes",
			Help:      "Size of the most recently written archive.",
		}),
	}
	m.registry.MustRegister(
		m.SnapshotsTotal,
		m.SnapshotFailures,
		m.PendingSaves,
		m.SnapshotDuration,
		m.LastArchiveBytes,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) snapshotDone(took time.Duration, size int64) {
	if m == nil {
		return
	}
	m.SnapshotsTotal.Inc()
	m.SnapshotDuration.Observe(took.Seconds())
	m.LastArchiveBytes.Set(float64(size))
}

func (m *Metrics) snapshotFailed(stage Stage) {
	if m == nil {
		return
	}
	m.SnapshotFailures.WithLabelValues(string(stage)).Inc()
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.PendingSaves.Set(float64(n))
}
