// Package prometheus provides the Prometheus implementations of the metrics
// interfaces declared by the instrumented packages. Every constructor
// returns nil when the registry has not been initialized, so components can
// hold the interface without nil checks at construction sites.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bistrokit/bistro/pkg/metrics"
	"github.com/bistrokit/bistro/pkg/store"
)

// poolMetrics implements store.PoolMetrics.
type poolMetrics struct {
	acquires    *prometheus.CounterVec
	releases    *prometheus.CounterVec
	evictions   prometheus.Counter
	idleHandles prometheus.Gauge
}

// NewPoolMetrics creates Prometheus-backed pool metrics, or nil when
// metrics are disabled.
func NewPoolMetrics() store.PoolMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &poolMetrics{
		acquires: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistro_pool_acquires_total",
				Help: "Database handle acquisitions by source",
			},
			[]string{"source"}, // "idle", "fresh"
		),
		releases: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistro_pool_releases_total",
				Help: "Database handle releases by outcome",
			},
			[]string{"outcome"}, // "queued", "overflow"
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_pool_evictions_total",
				Help: "Idle handles closed by the evictor",
			},
		),
		idleHandles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "bistro_pool_idle_handles",
				Help: "Handles currently idle in the pool",
			},
		),
	}
}

func (m *poolMetrics) RecordAcquire(reused bool) {
	source := "fresh"
	if reused {
		source = "idle"
	}
	m.acquires.WithLabelValues(source).Inc()
}

func (m *poolMetrics) RecordRelease(overflow bool) {
	outcome := "queued"
	if overflow {
		outcome = "overflow"
	}
	m.releases.WithLabelValues(outcome).Inc()
}

func (m *poolMetrics) RecordEvictions(count int) {
	m.evictions.Add(float64(count))
}

func (m *poolMetrics) SetIdleHandles(count int) {
	m.idleHandles.Set(float64(count))
}
