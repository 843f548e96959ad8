package order

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/internal/cli/output"
	"github.com/bistrokit/bistro/internal/cli/timeutil"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <order-number>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	orderID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid order number: %s", args[0])
	}

	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	o, err := client.GetOrder(uint(orderID))
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, o)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, o)
	}

	table := "-"
	if o.TableID != nil {
		table = strconv.Itoa(*o.TableID)
	}
	price := "-"
	if o.TotalPrice != nil {
		price = fmt.Sprintf("%.2f", *o.TotalPrice)
	}
	member := "guest"
	if !o.IsGuest() {
		member = strconv.FormatUint(uint64(o.MemberID), 10)
	}

	return output.SimpleTable(os.Stdout, [][2]string{
		{"Order", strconv.FormatUint(uint64(o.ID), 10)},
		{"Confirmation code", strconv.Itoa(o.Code)},
		{"Customer", o.CustomerName},
		{"Phone", o.Phone},
		{"Email", o.Email},
		{"Member", member},
		{"Guests", strconv.Itoa(o.Guests)},
		{"Status", string(o.Status)},
		{"Scheduled", timeutil.FormatTime(o.ScheduledAt)},
		{"Placed", timeutil.FormatTime(o.PlacedAt)},
		{"Arrived", timeutil.FormatOptional(o.ArrivalAt)},
		{"Left", timeutil.FormatOptional(o.LeaveAt)},
		{"Table", table},
		{"Total price", price},
	})
}
