package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bistrokit/bistro/pkg/adapter"
	"github.com/bistrokit/bistro/pkg/adapter/gateway"
	"github.com/bistrokit/bistro/pkg/metrics"
)

// gatewayMetrics implements gateway.Metrics.
type gatewayMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	broadcasts      *prometheus.CounterVec
}

// NewGatewayMetrics creates Prometheus-backed request metrics for the
// gateway, or nil when metrics are disabled.
func NewGatewayMetrics() gateway.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &gatewayMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistro_gateway_requests_total",
				Help: "Dispatched requests by action tag and outcome",
			},
			[]string{"action", "outcome"}, // outcome: "ok", "error"
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bistro_gateway_request_duration_milliseconds",
				Help:    "Request handling duration in milliseconds",
				Buckets: []float64{0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"action"},
		),
		broadcasts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistro_gateway_broadcasts_total",
				Help: "Server push broadcasts by tag",
			},
			[]string{"tag"},
		),
	}
}

func (m *gatewayMetrics) RecordRequest(tag string, ok bool, duration time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.requests.WithLabelValues(tag, outcome).Inc()
	m.requestDuration.WithLabelValues(tag).Observe(float64(duration.Milliseconds()))
}

func (m *gatewayMetrics) RecordBroadcast(tag string) {
	m.broadcasts.WithLabelValues(tag).Inc()
}

// connectionMetrics implements adapter.MetricsRecorder.
type connectionMetrics struct {
	accepted    prometheus.Counter
	closed      prometheus.Counter
	forceClosed prometheus.Counter
	active      prometheus.Gauge
}

// NewConnectionMetrics creates Prometheus-backed connection lifecycle
// metrics, or nil when metrics are disabled.
func NewConnectionMetrics() adapter.MetricsRecorder {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &connectionMetrics{
		accepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_connections_accepted_total",
				Help: "TCP connections accepted",
			},
		),
		closed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_connections_closed_total",
				Help: "TCP connections closed",
			},
		),
		forceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_connections_force_closed_total",
				Help: "TCP connections force-closed at shutdown",
			},
		),
		active: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "bistro_connections_active",
				Help: "Currently active TCP connections",
			},
		),
	}
}

func (m *connectionMetrics) RecordConnectionAccepted()    { m.accepted.Inc() }
func (m *connectionMetrics) RecordConnectionClosed()      { m.closed.Inc() }
func (m *connectionMetrics) RecordConnectionForceClosed() { m.forceClosed.Inc() }
func (m *connectionMetrics) SetActiveConnections(count int32) {
	m.active.Set(float64(count))
}
