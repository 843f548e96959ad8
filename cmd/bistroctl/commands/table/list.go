package table

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tables",
	Long: `List all dining tables with their capacity and current status.

Examples:
  # List tables as table
  bistroctl table list

  # List as JSON
  bistroctl table list -o json`,
	RunE: runList,
}

// TableList is a list of dining tables for table rendering.
type TableList []*models.Table

func (tl TableList) Headers() []string {
	return []string{"ID", "CAPACITY", "STATUS"}
}

func (tl TableList) Rows() [][]string {
	rows := make([][]string, 0, len(tl))
	for _, t := range tl {
		rows = append(rows, []string{strconv.Itoa(t.ID), strconv.Itoa(t.Capacity), string(t.Status)})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	tables, err := client.ListTables()
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, tables, len(tables) == 0, "No tables found.", TableList(tables))
}
