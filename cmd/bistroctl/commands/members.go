package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/spf13/cobra"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List registered members",
	Long: `List registered members with their member codes.

Requires a MANAGER account.`,
	RunE: runMembers,
}

// MemberList is a list of members for table rendering.
type MemberList []*models.User

func (ml MemberList) Headers() []string {
	return []string{"CODE", "USERNAME", "NAME", "EMAIL", "PHONE"}
}

func (ml MemberList) Rows() [][]string {
	rows := make([][]string, 0, len(ml))
	for _, m := range ml {
		code := "-"
		if m.MemberCode != nil {
			code = strconv.Itoa(*m.MemberCode)
		}
		rows = append(rows, []string{code, m.Username, m.FullName(), m.Email, m.Phone})
	}
	return rows
}

func runMembers(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	members, err := client.ListMembers()
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, members, len(members) == 0, "No members found.", MemberList(members))
}
