package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bistrokit/bistro/pkg/metrics"
	"github.com/bistrokit/bistro/pkg/scheduler"
)

// schedulerMetrics implements scheduler.Metrics.
type schedulerMetrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	lateCancels  *prometheus.CounterVec
	reminders    prometheus.Counter
	invoices     prometheus.Counter
}

// NewSchedulerMetrics creates Prometheus-backed sweep metrics, or nil when
// metrics are disabled.
func NewSchedulerMetrics() scheduler.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &schedulerMetrics{
		ticks: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_scheduler_ticks_total",
				Help: "Completed scheduler ticks",
			},
		),
		tickDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bistro_scheduler_tick_duration_milliseconds",
				Help:    "Full sweep duration per tick in milliseconds",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
			},
		),
		lateCancels: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistro_scheduler_late_cancellations_total",
				Help: "Orders cancelled by the late-arrival sweep, by kind",
			},
			[]string{"kind"}, // "waiting", "no_show"
		),
		reminders: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_scheduler_reminders_total",
				Help: "Reservation reminders emitted",
			},
		),
		invoices: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_scheduler_invoices_total",
				Help: "Automatic invoices issued",
			},
		),
	}
}

func (m *schedulerMetrics) RecordTick(duration time.Duration) {
	m.ticks.Inc()
	m.tickDuration.Observe(float64(duration.Milliseconds()))
}

func (m *schedulerMetrics) RecordLateCancellations(waiting, noShows int) {
	if waiting > 0 {
		m.lateCancels.WithLabelValues("waiting").Add(float64(waiting))
	}
	if noShows > 0 {
		m.lateCancels.WithLabelValues("no_show").Add(float64(noShows))
	}
}

func (m *schedulerMetrics) RecordReminders(count int) {
	m.reminders.Add(float64(count))
}

func (m *schedulerMetrics) RecordInvoices(count int) {
	m.invoices.Add(float64(count))
}
