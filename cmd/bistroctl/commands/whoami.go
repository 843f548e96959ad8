package commands

import (
	"fmt"
	"os"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	"github.com/bistrokit/bistro/pkg/models"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated user",
	RunE:  runWhoami,
}

type userDetail struct {
	user *models.User
}

func (d userDetail) Headers() []string {
	return []string{"USERNAME", "NAME", "ROLE", "EMAIL", "MEMBER CODE"}
}

func (d userDetail) Rows() [][]string {
	code := "-"
	if d.user.MemberCode != nil {
		code = fmt.Sprintf("%d", *d.user.MemberCode)
	}
	return [][]string{{d.user.Username, d.user.FullName(), string(d.user.Role), d.user.Email, code}}
}

func runWhoami(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	user, err := client.Me()
	if err != nil {
		return fmt.Errorf("failed to fetch current user: %w", err)
	}

	return cmdutil.PrintResource(os.Stdout, user, userDetail{user})
}
