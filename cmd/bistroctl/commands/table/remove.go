package table

import (
	"fmt"
	"strconv"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/spf13/cobra"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:   "remove <table-id>",
	Short: "Remove a table",
	Long: `Remove a dining table from the floor plan.

The table must be available. You will be prompted for confirmation
unless --force is specified.

Examples:
  # Remove table 7 with confirmation
  bistroctl table remove 7

  # Remove table 7 without confirmation
  bistroctl table remove 7 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	tableID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid table id: %s", args[0])
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	return cmdutil.RunDeleteWithConfirmation("table", args[0], removeForce, func() error {
		if err := client.RemoveTable(tableID); err != nil {
			return fmt.Errorf("failed to remove table: %w", err)
		}
		return nil
	})
}
