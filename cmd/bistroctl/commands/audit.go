package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/internal/cli/timeutil"
	"github.com/bistrokit/bistro/pkg/journal"
	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit journal",
	Long: `Show recent entries from the server's audit journal, newest first.

Requires a MANAGER account and a server with the journal enabled.

Examples:
  # Last 50 entries
  bistroctl audit

  # Last 200 entries as JSON
  bistroctl audit --limit 200 -o json`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "Maximum number of entries")
}

// AuditList is a list of journal entries for table rendering.
type AuditList []journal.Entry

func (al AuditList) Headers() []string {
	return []string{"TIME", "ACTOR", "ACTION", "ORDER", "TABLE", "DETAIL"}
}

func (al AuditList) Rows() [][]string {
	rows := make([][]string, 0, len(al))
	for _, e := range al {
		order := "-"
		if e.OrderID != 0 {
			order = strconv.FormatUint(uint64(e.OrderID), 10)
		}
		table := "-"
		if e.TableID != 0 {
			table = strconv.Itoa(e.TableID)
		}
		rows = append(rows, []string{timeutil.FormatTime(e.At), e.Actor, e.Action, order, table, e.Detail})
	}
	return rows
}

func runAudit(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	entries, err := client.AuditLog(auditLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch audit journal: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, entries, len(entries) == 0, "No journal entries.", AuditList(entries))
}
