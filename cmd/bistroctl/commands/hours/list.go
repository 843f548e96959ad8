package hours

import (
	"fmt"
	"os"
	"time"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all opening hours",
	RunE:  runList,
}

var dayNames = []string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// HoursList is a list of opening hours rows for table rendering.
type HoursList []*models.OpeningHours

func (hl HoursList) Headers() []string {
	return []string{"DAY", "OPEN", "CLOSE", "CLOSED"}
}

func (hl HoursList) Rows() [][]string {
	rows := make([][]string, 0, len(hl))
	for _, h := range hl {
		day := ""
		if h.SpecificDate != nil {
			day = h.SpecificDate.Format(time.DateOnly)
		} else if h.DayOfWeek >= 1 && h.DayOfWeek <= 7 {
			day = dayNames[h.DayOfWeek]
		}
		closed := "no"
		if h.IsClosed {
			closed = "yes"
		}
		rows = append(rows, []string{day, h.OpenTime, h.CloseTime, closed})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	hours, err := client.GetHours()
	if err != nil {
		return fmt.Errorf("failed to fetch opening hours: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, hours, len(hours) == 0, "No opening hours configured.", HoursList(hours))
}
