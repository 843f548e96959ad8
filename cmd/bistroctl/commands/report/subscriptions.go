package report

import (
	"fmt"
	"os"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/spf13/cobra"
)

var subscriptionsCmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "Monthly subscription report",
	Long: `Show member subscription activity for a month: new members, member
visits and the member share of revenue.

Examples:
  # Current month
  bistroctl report subscriptions

  # June 2026 as YAML
  bistroctl report subscriptions --month 6 --year 2026 -o yaml`,
	RunE: runSubscriptions,
}

func runSubscriptions(cmd *cobra.Command, args []string) error {
	if err := validatePeriod(); err != nil {
		return err
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	report, err := client.SubscriptionReport(reportMonth, reportYear)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription report: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, report, len(report) == 0, "No data for this period.", Report(report))
}
