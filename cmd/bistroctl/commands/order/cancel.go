package order

import (
	"fmt"
	"strconv"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var cancelForce bool

var cancelCmd = &cobra.Command{
	Use:   "cancel <order-number>",
	Short: "Cancel an order",
	Long: `Cancel an order on behalf of the customer.

Cancelling frees the reserved table and promotes the waitlist. You will
be prompted for confirmation unless --force is specified.

Examples:
  # Cancel order 42 with confirmation
  bistroctl order cancel 42

  # Cancel order 42 without confirmation
  bistroctl order cancel 42 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	cancelCmd.Flags().BoolVarP(&cancelForce, "force", "f", false, "Skip confirmation prompt")
}

func runCancel(cmd *cobra.Command, args []string) error {
	orderID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid order number: %s", args[0])
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Cancel order %d?", orderID), cancelForce)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	if err := client.CancelOrder(uint(orderID)); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Order %d cancelled", orderID))
	return nil
}
