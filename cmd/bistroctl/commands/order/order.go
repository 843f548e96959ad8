// Package order implements order management commands for bistroctl.
package order

import (
	"strconv"

	"github.com/bistrokit/bistro/internal/cli/timeutil"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/spf13/cobra"
)

// Cmd is the parent command for order management.
var Cmd = &cobra.Command{
	Use:   "order",
	Short: "Order management",
	Long: `Manage orders on the bistro server.

Order commands let staff inspect active reservations, the waitlist and
seated diners, force status transitions and cancel orders.

Examples:
  # List active orders
  bistroctl order list

  # Show one order
  bistroctl order get 42

  # Mark order 42 as seated
  bistroctl order status 42 SEATED

  # Cancel order 42
  bistroctl order cancel 42

  # Show the waitlist
  bistroctl order waitlist

  # Show diners currently at tables
  bistroctl order diners`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(waitlistCmd)
	Cmd.AddCommand(dinersCmd)
}

// OrderList is a list of orders for table rendering.
type OrderList []*models.Order

func (ol OrderList) Headers() []string {
	return []string{"ORDER", "CODE", "CUSTOMER", "GUESTS", "SCHEDULED", "STATUS", "TABLE"}
}

func (ol OrderList) Rows() [][]string {
	rows := make([][]string, 0, len(ol))
	for _, o := range ol {
		table := "-"
		if o.TableID != nil {
			table = strconv.Itoa(*o.TableID)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(o.ID), 10),
			strconv.Itoa(o.Code),
			o.CustomerName,
			strconv.Itoa(o.Guests),
			timeutil.FormatTime(o.ScheduledAt),
			string(o.Status),
			table,
		})
	}
	return rows
}
