package order

import (
	"fmt"
	"os"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/spf13/cobra"
)

var waitlistCmd = &cobra.Command{
	Use:   "waitlist",
	Short: "Show the waitlist",
	Long:  `List parties waiting for a table, in promotion order.`,
	RunE:  runWaitlist,
}

func runWaitlist(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	orders, err := client.Waitlist()
	if err != nil {
		return fmt.Errorf("failed to fetch waitlist: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, orders, len(orders) == 0, "The waitlist is empty.", OrderList(orders))
}
