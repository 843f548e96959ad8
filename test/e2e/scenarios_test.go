//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistrokit/bistro/internal/protocol/wire"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/bistrokit/bistro/test/e2e/helpers"
)

// TestWalkInSeatsImmediately verifies that a walk-in party is seated on the
// smallest fitting table straight away: two tables (2 and 4 seats), a party
// of two, and the reply carries a SEATED order on the two-top.
func TestWalkInSeatsImmediately(t *testing.T) {
	env := helpers.StartEnv(t)
	env.AddTable(t, 1, 2)
	env.AddTable(t, 2, 4)

	c := env.Dial(t)
	resp := c.RequestOK(wire.TagEnterWaitlist, wire.OrderDraft{
		Guests:       2,
		Phone:        "555-0100",
		CustomerName: "Walk In",
	})
	order := c.Order(resp)

	require.Equal(t, models.StatusSeated, order.Status)
	require.NotNil(t, order.TableID, "seated order should carry its table")
	assert.Equal(t, 1, *order.TableID, "best fit is the two-top, not the four-top")
	require.NotNil(t, order.ArrivalAt, "seating stamps the arrival time")
	assert.WithinDuration(t, time.Now(), *order.ArrivalAt, 2*time.Second)
	assert.NotZero(t, order.Code, "walk-ins get a confirmation code too")

	assert.Equal(t, models.TableOccupied, env.Table(t, 1).Status)
	assert.Equal(t, models.TableAvailable, env.Table(t, 2).Status)
}

// TestReservationConflictOffersAlternatives drives CREATE_ORDER into an
// infeasible slot. With one four-top and an existing four-guest booking at
// 17:30, a second four-guest request at 19:00 cannot fit; the +30 and +60
// offsets escape the overlap window and come back as alternatives, in probe
// order.
func TestReservationConflictOffersAlternatives(t *testing.T) {
	env := helpers.StartEnv(t)
	env.AddTable(t, 1, 2)
	env.AddTable(t, 2, 4)
	env.OpenDaily(t, "12:00", "23:00")
	env.SeedOrder(t, models.StatusPending, helpers.Tomorrow(17, 30), 4, "555-0001")

	c := env.Dial(t)
	resp := c.Request(wire.TagCreateOrder, wire.OrderDraft{
		ScheduledAt:  wire.ToMillis(helpers.Tomorrow(19, 0)),
		Guests:       4,
		Phone:        "555-0002",
		CustomerName: "Second Party",
	})

	require.Equal(t, uint32(wire.ArmOK), resp.Arm)
	require.Equal(t, wire.TagOrderAlternatives, resp.Tag,
		"an infeasible request answers with the alternatives payload")

	times, err := wire.DecodeTimeList(bytes.NewReader(resp.Body))
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, helpers.Tomorrow(19, 30).UnixMilli(), times[0].UnixMilli())
	assert.Equal(t, helpers.Tomorrow(20, 0).UnixMilli(), times[1].UnixMilli())
}

// TestLateReservationMarkedNoShow seeds a reservation sixteen minutes past
// its time and runs one scheduler sweep: the order becomes NO_SHOW, and a
// second sweep changes nothing.
func TestLateReservationMarkedNoShow(t *testing.T) {
	env := helpers.StartEnv(t)
	env.AddTable(t, 1, 2)

	late := env.SeedOrder(t, models.StatusPending,
		time.Now().Add(-16*time.Minute), 2, "555-0300")

	env.Scheduler.RunOnce(context.Background())
	require.Equal(t, models.StatusNoShow, env.Order(t, late.ID).Status)
	assert.Equal(t, models.TableAvailable, env.Table(t, 1).Status)

	// A second tick must not touch the already-terminal order.
	env.Scheduler.RunOnce(context.Background())
	assert.Equal(t, models.StatusNoShow, env.Order(t, late.ID).Status)
}

// TestPaymentPromotesWaitlist seats party A on the only table, parks party B
// on the waitlist, then pays A's bill: A completes, the table frees, B moves
// to NOTIFIED and a table-ready notification carrying B's code reaches the
// connected clients.
func TestPaymentPromotesWaitlist(t *testing.T) {
	env := helpers.StartEnv(t)
	env.AddTable(t, 1, 2)

	alice := env.Dial(t)
	respA := alice.RequestOK(wire.TagEnterWaitlist, wire.OrderDraft{
		Guests: 2, Phone: "555-0111", CustomerName: "Party A",
	})
	orderA := alice.Order(respA)
	require.Equal(t, models.StatusSeated, orderA.Status)

	bob := env.Dial(t)
	respB := bob.RequestOK(wire.TagEnterWaitlist, wire.OrderDraft{
		Guests: 2, Phone: "555-0222", CustomerName: "Party B",
	})
	orderB := bob.Order(respB)
	require.Equal(t, models.StatusWaiting, orderB.Status, "no free table, B waits")
	require.Nil(t, orderB.TableID)

	alice.RequestOK(wire.TagPayBill, wire.CodeRequest{
		Code:  uint32(orderA.Code),
		Phone: "555-0111",
	})

	assert.Equal(t, models.StatusCompleted, env.Order(t, orderA.ID).Status)
	assert.Equal(t, models.TableAvailable, env.Table(t, 1).Status,
		"promotion notifies, it does not re-claim the table")
	assert.Equal(t, models.StatusNotified, env.Order(t, orderB.ID).Status)

	text := bob.Notification(3 * time.Second)
	assert.Contains(t, text, fmt.Sprintf("%04d", orderB.Code),
		"table-ready push names B's confirmation code")
}

// TestSecondLoginRefusedUntilLogout checks the single-session rule: a second
// connection logging in as an already-online member gets the null reply, and
// succeeds once the first connection logs out.
func TestSecondLoginRefusedUntilLogout(t *testing.T) {
	env := helpers.StartEnv(t)

	first := env.Dial(t)
	first.Register("alice", "correct-horse", "555-0123", "alice@example.com")

	user := first.Login("alice", "correct-horse")
	require.NotNil(t, user, "first login should succeed")
	assert.Equal(t, models.RoleMember, user.Role)

	second := env.Dial(t)
	require.Nil(t, second.Login("alice", "correct-horse"),
		"second concurrent login must be refused")

	first.RequestOK(wire.TagLogout, nil)

	require.NotNil(t, second.Login("alice", "correct-horse"),
		"login should succeed after the first session ended")
}

// TestClosingDayCancelsStrandedOrder closes tomorrow via UPDATE_OPENING_HOURS
// and expects the pending reservation for tomorrow evening to be cancelled,
// with a broadcast telling connected clients.
func TestClosingDayCancelsStrandedOrder(t *testing.T) {
	env := helpers.StartEnv(t)
	env.AddTable(t, 1, 2)
	env.AddTable(t, 2, 4)
	env.OpenDaily(t, "12:00", "23:00")
	env.SeedStaff(t, "worker1", "workerpw99")

	stranded := env.SeedOrder(t, models.StatusPending, helpers.Tomorrow(20, 0), 2, "555-0400")

	customer := env.Dial(t)

	staff := env.Dial(t)
	require.NotNil(t, staff.Login("worker1", "workerpw99"))
	resp := staff.RequestOK(wire.TagUpdateOpeningHours, wire.HoursUpdate{
		SpecificDate: wire.ToMillis(helpers.Tomorrow(0, 0)),
		IsClosed:     true,
	})

	summary, err := wire.DecodeString(bytes.NewReader(resp.Body))
	require.NoError(t, err)
	assert.Equal(t, "opening hours updated; 1 orders cancelled", summary)

	require.Equal(t, models.StatusCancelled, env.Order(t, stranded.ID).Status)

	text := customer.Notification(3 * time.Second)
	assert.Contains(t, text, fmt.Sprintf("%04d", stranded.Code))
	assert.Contains(t, text, "cancelled")
}
