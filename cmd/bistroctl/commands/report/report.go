// Package report implements monthly report commands for bistroctl.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// Cmd is the parent command for reports.
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Monthly reports",
	Long: `Generate monthly reports from the bistro server.

Reports default to the current month. These operations require a
MANAGER account.

Examples:
  # Performance report for the current month
  bistroctl report performance

  # Subscription report for June 2026
  bistroctl report subscriptions --month 6 --year 2026`,
}

var (
	reportMonth int
	reportYear  int
)

func init() {
	now := time.Now()
	for _, c := range []*cobra.Command{performanceCmd, subscriptionsCmd} {
		c.Flags().IntVarP(&reportMonth, "month", "m", int(now.Month()), "Report month (1-12)")
		c.Flags().IntVarP(&reportYear, "year", "y", now.Year(), "Report year")
	}

	Cmd.AddCommand(performanceCmd)
	Cmd.AddCommand(subscriptionsCmd)
}

func validatePeriod() error {
	if reportMonth < 1 || reportMonth > 12 {
		return fmt.Errorf("invalid month: %d", reportMonth)
	}
	if reportYear < 2000 {
		return fmt.Errorf("invalid year: %d", reportYear)
	}
	return nil
}

// Report renders metric/value pairs sorted by metric name.
type Report map[string]float64

func (r Report) Headers() []string {
	return []string{"METRIC", "VALUE"}
}

func (r Report) Rows() [][]string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprintf("%.2f", r[k])})
	}
	return rows
}
