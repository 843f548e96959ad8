// Package seating drives the dine-in lifecycle: arrivals, walk-ins, the
// waitlist, checkout, and table-freed promotion. All table state changes go
// through conditional updates in the store so concurrent terminals cannot
// double-seat a table.
package seating

import (
	"context"
	"strings"
	"time"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/bistrokit/bistro/pkg/store"
)

// ArrivalWindow is how far from the scheduled time an arrival by code is
// honored, on either side.
const ArrivalWindow = 20 * time.Minute

// MemberDiscount is applied at checkout when the paying member owns the order.
const MemberDiscount = 0.10

// Notifier receives table-ready events for waitlisted parties. The gateway
// implements it by pushing to connected clients; a nil notifier is valid.
type Notifier interface {
	TableReady(order *models.Order)
}

// Metrics counts seating outcomes. Implementations must be nil-safe at the
// call sites; the controller checks before every call.
type Metrics interface {
	RecordArrival(seated bool)
	RecordWalkIn(seated bool)
	RecordPayment(amount float64, discounted bool)
	RecordPromotion()
}

// Controller coordinates seating operations against the store.
type Controller struct {
	store    *store.Store
	notifier Notifier
	metrics  Metrics
	now      func() time.Time
}

// NewController creates a seating controller. notifier and metrics may be nil.
func NewController(st *store.Store, notifier Notifier, metrics Metrics) *Controller {
	return &Controller{store: st, notifier: notifier, metrics: metrics, now: time.Now}
}

// WithClock overrides the controller's clock for tests.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// SetNotifier installs the notifier after construction. The gateway both
// consumes the controller and receives its pushes, so startup wires the two
// in separate steps.
func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

// Arrive seats a reservation by confirmation code. The order must be PENDING
// or NOTIFIED and the arrival must fall inside the window around its
// scheduled time. Returns the seated order with its assigned table.
func (c *Controller) Arrive(ctx context.Context, code int) (*models.Order, error) {
	order, err := c.store.GetOrderByActiveCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending && order.Status != models.StatusNotified {
		return nil, models.ErrWrongState
	}

	now := c.now()
	delta := now.Sub(order.ScheduledAt)
	if delta < -ArrivalWindow || delta > ArrivalWindow {
		return nil, models.ErrOutsideWindow
	}

	tableID, err := c.seat(ctx, order, now)
	if c.metrics != nil {
		c.metrics.RecordArrival(err == nil)
	}
	if err != nil {
		return nil, err
	}

	order.Status = models.StatusSeated
	order.TableID = &tableID
	order.ArrivalAt = &now
	logger.Info("arrival seated",
		logger.OrderID(order.ID), logger.Code(code), logger.TableID(tableID))
	return order, nil
}

// WalkInRequest describes a party at the door without a reservation.
type WalkInRequest struct {
	Guests       int
	CustomerName string
	Phone        string
	Email        string
	MemberID     uint // 0 for guests
}

// WalkIn seats a party immediately when a table fits, otherwise enrolls it on
// the waitlist. A contact already holding an active order today is rejected.
func (c *Controller) WalkIn(ctx context.Context, req WalkInRequest) (*models.Order, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if req.Phone == "" && req.Email == "" {
		return nil, models.ErrMissingContact
	}

	active, err := c.store.HasActiveOrderToday(ctx, req.Phone, req.Email)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, models.ErrAlreadyActive
	}

	now := c.now()
	order := &models.Order{
		ScheduledAt:  now,
		Guests:       req.Guests,
		MemberID:     req.MemberID,
		PlacedAt:     now,
		Phone:        req.Phone,
		Email:        req.Email,
		CustomerName: req.CustomerName,
	}

	// Claim a table before creating the order so the row never needs a
	// PENDING-to-WAITING flip when the floor is full.
	tableID, claimed, err := c.claimSmallestFit(ctx, req.Guests)
	if err != nil {
		return nil, err
	}

	if !claimed {
		order.Status = models.StatusWaiting
		order.EnteredWaitlist = true
		if err := c.store.CreateOrder(ctx, order); err != nil {
			return nil, err
		}
		if c.metrics != nil {
			c.metrics.RecordWalkIn(false)
		}
		logger.Info("walk-in waitlisted",
			logger.OrderID(order.ID), logger.Code(order.Code), logger.Guests(req.Guests))
		return order, nil
	}

	order.Status = models.StatusPending
	if err := c.store.CreateOrder(ctx, order); err != nil {
		c.releaseTable(ctx, tableID)
		return nil, err
	}
	if err := c.store.SeatOrder(ctx, order.ID, tableID, now); err != nil {
		c.releaseTable(ctx, tableID)
		return nil, err
	}

	order.Status = models.StatusSeated
	order.TableID = &tableID
	order.ArrivalAt = &now
	if c.metrics != nil {
		c.metrics.RecordWalkIn(true)
	}
	logger.Info("walk-in seated",
		logger.OrderID(order.ID), logger.Code(order.Code), logger.TableID(tableID))
	return order, nil
}

// LeaveWaitlist cancels a not-yet-seated order by confirmation code. Seated
// or billed orders cannot leave; they settle through Pay.
func (c *Controller) LeaveWaitlist(ctx context.Context, code int) error {
	order, err := c.store.GetOrderByActiveCode(ctx, code)
	if err != nil {
		return err
	}
	switch order.Status {
	case models.StatusWaiting, models.StatusNotified, models.StatusPending:
	default:
		return models.ErrNotLeavable
	}
	if err := c.store.CancelOrder(ctx, order.ID); err != nil {
		return err
	}
	logger.Info("waitlist entry cancelled", logger.OrderID(order.ID), logger.Code(code))
	return nil
}

// Receipt is the result of a successful checkout.
type Receipt struct {
	Order      *models.Order
	FinalPrice float64
	Discounted bool
}

// Pay settles a SEATED or BILLED order. A logged-in member paying for their
// own order gets the member discount; prices round half-up to cents. The
// freed table immediately triggers waitlist promotion.
func (c *Controller) Pay(ctx context.Context, code int, payer *models.User) (*Receipt, error) {
	order, err := c.store.GetOrderByActiveCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusSeated && order.Status != models.StatusBilled {
		return nil, models.ErrWrongState
	}

	price := order.BasePrice()
	discounted := payer != nil && payer.Role == models.RoleMember &&
		order.MemberID != 0 && order.MemberID == payer.ID
	if discounted {
		price *= 1 - MemberDiscount
	}
	price = models.RoundCents(price)

	now := c.now()
	freedTable, err := c.store.ProcessPayment(ctx, order.ID, price, now)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordPayment(price, discounted)
	}
	logger.Info("order settled",
		logger.OrderID(order.ID), logger.Code(code),
		"final_price", price, "discounted", discounted)

	order.Status = models.StatusCompleted
	order.TotalPrice = &price
	order.LeaveAt = &now
	order.TableID = nil

	if freedTable != 0 {
		c.PromoteFor(ctx, freedTable)
	}
	return &Receipt{Order: order, FinalPrice: price, Discounted: discounted}, nil
}

// Cancel cancels an active order and, when the order held a table, runs
// waitlist promotion for the freed table.
func (c *Controller) Cancel(ctx context.Context, order *models.Order) error {
	heldTable := 0
	if order.TableID != nil {
		heldTable = *order.TableID
	}
	if err := c.store.CancelOrder(ctx, order.ID); err != nil {
		return err
	}
	logger.Info("order cancelled", logger.OrderID(order.ID), logger.Code(order.Code))
	if heldTable != 0 {
		c.PromoteFor(ctx, heldTable)
	}
	return nil
}

// PromoteFor offers a freed table to the longest-waiting party that fits.
// The promoted order moves to NOTIFIED and gets a table-ready push; it does
// not hold the table, arrivals still race for it.
func (c *Controller) PromoteFor(ctx context.Context, tableID int) {
	table, err := c.store.GetTable(ctx, tableID)
	if err != nil {
		logger.Warn("promotion skipped, freed table vanished",
			logger.TableID(tableID), logger.Err(err))
		return
	}
	promoted, err := c.store.PromoteWaitlisted(ctx, table.Capacity, c.now())
	if err != nil {
		logger.Error("waitlist promotion failed", logger.TableID(tableID), logger.Err(err))
		return
	}
	if promoted == nil {
		return
	}
	if c.metrics != nil {
		c.metrics.RecordPromotion()
	}
	logger.Info("waitlist party notified",
		logger.OrderID(promoted.ID), logger.Code(promoted.Code), logger.TableID(tableID))
	if c.notifier != nil {
		c.notifier.TableReady(promoted)
	}
}

// seat claims the smallest fitting available table and seats the order on
// it, releasing the claim if the order raced into a non-seatable state.
func (c *Controller) seat(ctx context.Context, order *models.Order, now time.Time) (int, error) {
	tableID, claimed, err := c.claimSmallestFit(ctx, order.Guests)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, models.ErrNoFreeTable
	}
	if err := c.store.SeatOrder(ctx, order.ID, tableID, now); err != nil {
		c.releaseTable(ctx, tableID)
		return 0, err
	}
	return tableID, nil
}

// claimSmallestFit walks available tables in capacity order and claims the
// first one it wins. Losing every claim means the floor filled up under us.
func (c *Controller) claimSmallestFit(ctx context.Context, guests int) (int, bool, error) {
	tables, err := c.store.ListAvailableTables(ctx, guests)
	if err != nil {
		return 0, false, err
	}
	for _, t := range tables {
		claimed, err := c.store.ClaimTable(ctx, t.ID)
		if err != nil {
			return 0, false, err
		}
		if claimed {
			return t.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *Controller) releaseTable(ctx context.Context, tableID int) {
	if err := c.store.FreeTable(ctx, tableID); err != nil {
		logger.Error("failed to release claimed table", logger.TableID(tableID), logger.Err(err))
	}
}
