package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bistrokit/bistro/pkg/metrics"
	"github.com/bistrokit/bistro/pkg/seating"
)

// seatingMetrics implements seating.Metrics.
type seatingMetrics struct {
	arrivals   *prometheus.CounterVec
	walkIns    *prometheus.CounterVec
	payments   *prometheus.CounterVec
	revenue    prometheus.Counter
	promotions prometheus.Counter
}

// NewSeatingMetrics creates Prometheus-backed seating metrics, or nil when
// metrics are disabled.
func NewSeatingMetrics() seating.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &seatingMetrics{
		arrivals: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistro_seating_arrivals_total",
				Help: "Arrival attempts by outcome",
			},
			[]string{"outcome"}, // "seated", "rejected"
		),
		walkIns: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistro_seating_walkins_total",
				Help: "Walk-ins by outcome",
			},
			[]string{"outcome"}, // "seated", "waitlisted"
		),
		payments: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistro_seating_payments_total",
				Help: "Settled bills by discount status",
			},
			[]string{"discounted"}, // "true", "false"
		),
		revenue: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_seating_revenue_total",
				Help: "Accumulated settled revenue",
			},
		),
		promotions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bistro_seating_waitlist_promotions_total",
				Help: "Waitlist parties promoted to NOTIFIED",
			},
		),
	}
}

func (m *seatingMetrics) RecordArrival(seated bool) {
	m.arrivals.WithLabelValues(outcomeLabel(seated, "seated", "rejected")).Inc()
}

func (m *seatingMetrics) RecordWalkIn(seated bool) {
	m.walkIns.WithLabelValues(outcomeLabel(seated, "seated", "waitlisted")).Inc()
}

func (m *seatingMetrics) RecordPayment(amount float64, discounted bool) {
	m.payments.WithLabelValues(outcomeLabel(discounted, "true", "false")).Inc()
	m.revenue.Add(amount)
}

func (m *seatingMetrics) RecordPromotion() {
	m.promotions.Inc()
}

func outcomeLabel(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
