package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/models"
)

// SweepHoursChange re-checks future reservations against the current opening
// hours. Exposed for the ops API, which mutates hours outside the wire
// protocol's dispatch path.
func (g *Gateway) SweepHoursChange(ctx context.Context) ([]*models.Order, error) {
	return g.sweepHoursChange(ctx)
}

// SweepFeasibility re-checks future reservations against the current table
// set. Exposed for the ops API.
func (g *Gateway) SweepFeasibility(ctx context.Context) ([]*models.Order, error) {
	return g.sweepFeasibility(ctx)
}

// sweepHoursChange cancels future bookable orders that an opening-hours
// change left outside business hours, notifying each owner.
func (g *Gateway) sweepHoursChange(ctx context.Context) ([]*models.Order, error) {
	orders, err := g.store.ListFutureBookable(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	var cancelled []*models.Order
	for _, order := range orders {
		err := g.engine.WithinHours(ctx, order.ScheduledAt)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrOutsideHours) {
			return nil, err
		}
		if cerr := g.cancelStranded(ctx, order, "opening hours changed"); cerr != nil {
			return nil, cerr
		}
		cancelled = append(cancelled, order)
	}
	return cancelled, nil
}

// sweepFeasibility cancels future bookable orders that no longer fit after
// a table was removed or shrunk. Orders are walked in scheduled order so an
// early cancellation can rescue a later overlapping order.
func (g *Gateway) sweepFeasibility(ctx context.Context) ([]*models.Order, error) {
	capacities, err := g.store.GetCapacities(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := g.store.ListFutureBookable(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	var cancelled []*models.Order
	for _, order := range orders {
		stillFits, err := g.engine.Recheck(ctx, order, capacities)
		if err != nil {
			return nil, err
		}
		if stillFits {
			continue
		}
		if cerr := g.cancelStranded(ctx, order, "table configuration changed"); cerr != nil {
			return nil, cerr
		}
		cancelled = append(cancelled, order)
	}
	return cancelled, nil
}

// cancelStranded cancels one order on behalf of an administrative change and
// broadcasts the cancellation. A concurrently settled order is skipped.
func (g *Gateway) cancelStranded(ctx context.Context, order *models.Order, reason string) error {
	if err := g.store.CancelOrder(ctx, order.ID); err != nil {
		if errors.Is(err, models.ErrWrongState) || errors.Is(err, models.ErrOrderNotFound) {
			logger.Debug("stranded order raced to another state",
				logger.OrderID(order.ID), logger.Err(err))
			return nil
		}
		return err
	}

	g.audit("system", "admin_cancel", order.ID, 0, reason)
	g.broadcastNotification(fmt.Sprintf(
		"Your reservation (code %04d) for %s was cancelled: %s.",
		order.Code, order.ScheduledAt.Format("Jan 2 15:04"), reason))
	return nil
}
