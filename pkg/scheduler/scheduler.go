// Package scheduler runs the periodic order sweeps: late-arrival
// cancellation, reservation reminders, and automatic invoicing. Ticks run
// synchronously on one goroutine so a slow sweep delays the next tick
// instead of stacking concurrent runs.
package scheduler

import (
	"context"
	"time"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/bistrokit/bistro/pkg/seating"
	"github.com/bistrokit/bistro/pkg/store"
)

const (
	// WarmupDelay postpones the first tick after startup.
	WarmupDelay = 5 * time.Second
	// TickInterval separates sweep runs.
	TickInterval = 10 * time.Second
	// LateThreshold is how long past the scheduled time an unseated order
	// survives before cancellation.
	LateThreshold = 15 * time.Minute
	// ReminderLead is how far before the scheduled time reminders go out.
	// The query window is the lead +-ReminderSlack so a reservation is
	// caught exactly once even if a tick lands slightly off.
	ReminderLead  = 2 * time.Hour
	ReminderSlack = 5 * time.Minute
	// InvoiceAfter is the seated duration after which a visit is billed.
	InvoiceAfter = 2 * time.Hour
)

// Notifier receives the customer-facing events the sweeps produce. A nil
// notifier drops them.
type Notifier interface {
	Reminder(order *models.Order)
	Invoiced(order *models.Order)
}

// Metrics observes sweep outcomes. May be nil.
type Metrics interface {
	RecordTick(duration time.Duration)
	RecordLateCancellations(waiting, noShows int)
	RecordReminders(count int)
	RecordInvoices(count int)
}

// Scheduler owns the sweep loop. Start it once; Stop waits for the loop to
// drain mid-tick work.
type Scheduler struct {
	store    *store.Store
	seating  *seating.Controller
	notifier Notifier
	metrics  Metrics
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
	tick   uint64
}

// New creates a scheduler. notifier and metrics may be nil.
func New(st *store.Store, seat *seating.Controller, notifier Notifier, metrics Metrics) *Scheduler {
	return &Scheduler{
		store:    st,
		seating:  seat,
		notifier: notifier,
		metrics:  metrics,
		now:      time.Now,
	}
}

// WithClock overrides the scheduler's clock for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start launches the sweep loop. The first tick fires after the warmup delay.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		select {
		case <-time.After(WarmupDelay):
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(TickInterval)
		defer ticker.Stop()

		s.RunOnce(ctx)
		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	logger.Info("scheduler started",
		"warmup", WarmupDelay.String(), "interval", TickInterval.String())
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	logger.Info("scheduler stopped", logger.Tick(s.tick))
}

// RunOnce executes one full sweep. Every sweep is a select-then-advance over
// conditional updates, so a repeated run against unchanged data is a no-op.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.tick++
	started := s.now()

	s.sweepLate(ctx, started)
	s.sweepReminders(ctx, started)
	s.sweepInvoices(ctx, started)

	elapsed := time.Since(started)
	if s.metrics != nil {
		s.metrics.RecordTick(elapsed)
	}
	logger.Debug("scheduler tick complete",
		logger.Tick(s.tick), logger.DurationMs(float64(elapsed.Milliseconds())))
}

// sweepLate cancels overdue unseated orders and re-offers any freed tables
// to the waitlist.
func (s *Scheduler) sweepLate(ctx context.Context, now time.Time) {
	result, err := s.store.CancelLateOrders(ctx, LateThreshold, now)
	if err != nil {
		logger.Error("late-arrival sweep failed", logger.Tick(s.tick), logger.Err(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordLateCancellations(len(result.CancelledWaiting), len(result.NoShows))
	}
	if len(result.CancelledWaiting) > 0 || len(result.NoShows) > 0 {
		logger.Info("late orders swept", logger.Tick(s.tick),
			"cancelled_waiting", len(result.CancelledWaiting), "no_shows", len(result.NoShows))
	}
	for _, tableID := range result.FreedTables {
		s.seating.PromoteFor(ctx, tableID)
	}
}

// sweepReminders promotes upcoming reservations to NOTIFIED and emits the
// reminder event for each.
func (s *Scheduler) sweepReminders(ctx context.Context, now time.Time) {
	from := now.Add(ReminderLead - ReminderSlack)
	to := now.Add(ReminderLead + ReminderSlack)
	orders, err := s.store.GetReminders(ctx, from, to)
	if err != nil {
		logger.Error("reminder sweep failed", logger.Tick(s.tick), logger.Err(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordReminders(len(orders))
	}
	for _, order := range orders {
		logger.Info("reservation reminder sent",
			logger.OrderID(order.ID), logger.Code(order.Code),
			logger.ScheduledAt(order.ScheduledAt))
		if s.notifier != nil {
			s.notifier.Reminder(order)
		}
	}
}

// sweepInvoices bills visits seated longer than the invoice horizon.
func (s *Scheduler) sweepInvoices(ctx context.Context, now time.Time) {
	orders, err := s.store.GetAutomaticInvoices(ctx, now.Add(-InvoiceAfter))
	if err != nil {
		logger.Error("invoice sweep failed", logger.Tick(s.tick), logger.Err(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordInvoices(len(orders))
	}
	for _, order := range orders {
		price := 0.0
		if order.TotalPrice != nil {
			price = *order.TotalPrice
		}
		logger.Info("automatic invoice issued",
			logger.OrderID(order.ID), logger.Code(order.Code), "total_price", price)
		if s.notifier != nil {
			s.notifier.Invoiced(order)
		}
	}
}
