package order

import (
	"fmt"
	"os"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active orders",
	Long: `List all orders that still compete for tables: pending reservations,
waitlist entries, notified and seated parties.

Examples:
  # List active orders
  bistroctl order list

  # List as JSON
  bistroctl order list -o json`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	orders, err := client.ActiveOrders()
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, orders, len(orders) == 0, "No active orders.", OrderList(orders))
}
