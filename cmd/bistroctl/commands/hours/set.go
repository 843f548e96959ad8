package hours

import (
	"fmt"
	"time"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	setDay    int
	setDate   string
	setOpen   string
	setClose  string
	setClosed bool
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Set opening hours",
	Long: `Set opening hours for a weekday or a specific date.

Exactly one of --day or --date must be given. A date rule overrides the
weekday rule for that day. Reservations that fall outside the new hours
are cancelled and their customers notified.

Examples:
  # Open Mondays 11:00-22:00
  bistroctl hours set --day 1 --open 11:00 --close 22:00

  # Shorter hours on New Year's Eve
  bistroctl hours set --date 2026-12-31 --open 11:00 --close 18:00

  # Close on Christmas
  bistroctl hours set --date 2026-12-25 --closed`,
	RunE: runSet,
}

func init() {
	setCmd.Flags().IntVar(&setDay, "day", 0, "Weekday (1=Monday .. 7=Sunday)")
	setCmd.Flags().StringVar(&setDate, "date", "", "Specific date (YYYY-MM-DD)")
	setCmd.Flags().StringVar(&setOpen, "open", "", "Opening time (HH:mm)")
	setCmd.Flags().StringVar(&setClose, "close", "", "Closing time (HH:mm)")
	setCmd.Flags().BoolVar(&setClosed, "closed", false, "Mark the day as closed")
	setCmd.MarkFlagsMutuallyExclusive("day", "date")
	setCmd.MarkFlagsRequiredTogether("open", "close")
}

func runSet(cmd *cobra.Command, args []string) error {
	if setDay == 0 && setDate == "" {
		return fmt.Errorf("one of --day or --date is required")
	}
	if setDay != 0 && (setDay < 1 || setDay > 7) {
		return fmt.Errorf("invalid weekday: %d (1=Monday .. 7=Sunday)", setDay)
	}
	if setDate != "" {
		if _, err := time.Parse(time.DateOnly, setDate); err != nil {
			return fmt.Errorf("invalid date: %s (expected YYYY-MM-DD)", setDate)
		}
	}
	if !setClosed && setOpen == "" {
		return fmt.Errorf("either --open/--close or --closed is required")
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	req := apiclient.HoursRequest{
		DayOfWeek:    setDay,
		SpecificDate: setDate,
		OpenTime:     setOpen,
		CloseTime:    setClose,
		IsClosed:     setClosed,
	}
	if err := client.UpdateHours(req); err != nil {
		return fmt.Errorf("failed to update opening hours: %w", err)
	}

	cmdutil.PrintSuccess("Opening hours updated")
	return nil
}
