// Package commands implements the bistroctl CLI for staff operations.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/bistrokit/bistro/cmd/bistroctl/cmdutil"
	hourscmd "github.com/bistrokit/bistro/cmd/bistroctl/commands/hours"
	ordercmd "github.com/bistrokit/bistro/cmd/bistroctl/commands/order"
	reportcmd "github.com/bistrokit/bistro/cmd/bistroctl/commands/report"
	tablecmd "github.com/bistrokit/bistro/cmd/bistroctl/commands/table"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "bistroctl",
	Short: "bistroctl - staff console for a bistro server",
	Long: `bistroctl manages a running bistro server through its ops API.

Log in once with 'bistroctl login', then manage tables, orders, opening
hours and reports. Most commands require a STAFF or MANAGER account.

Use "bistroctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cmdutil.Flags.ServerURL, "server", "", "Server URL (overrides saved credentials)")
	pf.StringVar(&cmdutil.Flags.Token, "token", "", "Access token (overrides saved credentials)")
	pf.StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format (table|json|yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(tablecmd.Cmd)
	rootCmd.AddCommand(ordercmd.Cmd)
	rootCmd.AddCommand(hourscmd.Cmd)
	rootCmd.AddCommand(reportcmd.Cmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
