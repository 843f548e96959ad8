// Package hours implements opening hours commands for bistroctl.
package hours

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for opening hours management.
var Cmd = &cobra.Command{
	Use:   "hours",
	Short: "Opening hours management",
	Long: `Manage the restaurant's opening hours.

Hours are set per weekday (1=Monday .. 7=Sunday) or for a specific date,
which overrides the weekday rule. Changing hours cancels reservations
that no longer fit.

Examples:
  # Show all opening hours
  bistroctl hours list

  # Open Mondays 11:00-22:00
  bistroctl hours set --day 1 --open 11:00 --close 22:00

  # Close on Christmas
  bistroctl hours set --date 2026-12-25 --closed`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(setCmd)
}
