package table

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/spf13/cobra"
)

var addCapacity int

var addCmd = &cobra.Command{
	Use:   "add <table-id>",
	Short: "Add a table",
	Long: `Add a dining table to the floor plan.

Examples:
  # Add table 7 with four seats
  bistroctl table add 7 --capacity 4`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().IntVarP(&addCapacity, "capacity", "c", 0, "Number of seats (required)")
	_ = addCmd.MarkFlagRequired("capacity")
}

type tableDetail struct {
	table *models.Table
}

func (d tableDetail) Headers() []string {
	return []string{"ID", "CAPACITY", "STATUS"}
}

func (d tableDetail) Rows() [][]string {
	return [][]string{{strconv.Itoa(d.table.ID), strconv.Itoa(d.table.Capacity), string(d.table.Status)}}
}

func runAdd(cmd *cobra.Command, args []string) error {
	tableID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid table id: %s", args[0])
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	table, err := client.AddTable(tableID, addCapacity)
	if err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Table %d added", table.ID))
	return cmdutil.PrintResource(os.Stdout, table, tableDetail{table})
}
