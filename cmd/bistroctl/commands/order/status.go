package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <order-number> <status>",
	Short: "Force an order status transition",
	Long: `Force an order into a new status. The server rejects transitions the
order lifecycle does not allow.

Valid statuses: PENDING, WAITING, NOTIFIED, SEATED, BILLED, COMPLETED,
CANCELLED, NO_SHOW.

Examples:
  # Seat order 42 manually
  bistroctl order status 42 SEATED

  # Mark order 42 a no-show
  bistroctl order status 42 NO_SHOW`,
	Args: cobra.ExactArgs(2),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	orderID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid order number: %s", args[0])
	}

	status := models.OrderStatus(strings.ToUpper(args[1]))
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", args[1])
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.UpdateOrderStatus(uint(orderID), status); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Order %d is now %s", orderID, status))
	return nil
}
