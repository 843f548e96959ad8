// Package table implements table management commands for bistroctl.
package table

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for table management.
var Cmd = &cobra.Command{
	Use:   "table",
	Short: "Table management",
	Long: `Manage dining tables on the bistro server.

Table commands allow you to add, list, resize and remove tables.
These operations require a MANAGER account.

Examples:
  # List all tables
  bistroctl table list

  # Add table 7 with four seats
  bistroctl table add 7 --capacity 4

  # Resize table 7
  bistroctl table resize 7 --capacity 6

  # Remove table 7
  bistroctl table remove 7`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(resizeCmd)
	Cmd.AddCommand(removeCmd)
}
