package table

import (
	"fmt"
	"strconv"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/spf13/cobra"
)

var resizeCapacity int

var resizeCmd = &cobra.Command{
	Use:   "resize <table-id>",
	Short: "Change the capacity of a table",
	Long: `Change the number of seats at a table.

The table must be available; a table that is seated or reserved cannot
be resized.

Examples:
  # Resize table 7 to six seats
  bistroctl table resize 7 --capacity 6`,
	Args: cobra.ExactArgs(1),
	RunE: runResize,
}

func init() {
	resizeCmd.Flags().IntVarP(&resizeCapacity, "capacity", "c", 0, "Number of seats (required)")
	_ = resizeCmd.MarkFlagRequired("capacity")
}

func runResize(cmd *cobra.Command, args []string) error {
	tableID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid table id: %s", args[0])
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.ResizeTable(tableID, resizeCapacity); err != nil {
		return fmt.Errorf("failed to resize table: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Table %d resized to %d seats", tableID, resizeCapacity))
	return nil
}
