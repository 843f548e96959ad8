package order

import (
	"fmt"
	"os"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/spf13/cobra"
)

var dinersCmd = &cobra.Command{
	Use:   "diners",
	Short: "Show diners currently at tables",
	Long:  `List seated and billed parties with their assigned tables.`,
	RunE:  runDiners,
}

func runDiners(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	orders, err := client.ActiveDiners()
	if err != nil {
		return fmt.Errorf("failed to fetch diners: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, orders, len(orders) == 0, "No diners are seated.", OrderList(orders))
}
