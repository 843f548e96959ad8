package report

import (
	"fmt"
	"os"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/spf13/cobra"
)

var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Monthly performance report",
	Long: `Show guest counts, revenue, cancellations and no-shows for a month.

Examples:
  # Current month
  bistroctl report performance

  # June 2026 as JSON
  bistroctl report performance --month 6 --year 2026 -o json`,
	RunE: runPerformance,
}

func runPerformance(cmd *cobra.Command, args []string) error {
	if err := validatePeriod(); err != nil {
		return err
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	report, err := client.PerformanceReport(reportMonth, reportYear)
	if err != nil {
		return fmt.Errorf("failed to fetch performance report: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, report, len(report) == 0, "No data for this period.", Report(report))
}
