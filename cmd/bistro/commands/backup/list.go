package backup

import (
	"context"
	"fmt"
	"os"

	"github.com/bistrokit/bistro/internal/cli/output"
	"github.com/bistrokit/bistro/internal/cli/timeutil"
	"github.com/bistrokit/bistro/pkg/backup"
	"github.com/bistrokit/bistro/pkg/config"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listConfig string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available snapshots",
	Long: `List database snapshots stored in the configured bucket, newest first.

Use a snapshot key with "bistro restore --key" to roll the database back.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listConfig, "config", "", "Path to config file")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.MustLoad(listConfig)
	if err != nil {
		return err
	}

	if !cfg.Backup.Enabled {
		return fmt.Errorf("backups are disabled; set backup.enabled in the config file")
	}

	bs, err := backup.New(ctx, cfg.Backup)
	if err != nil {
		return fmt.Errorf("failed to initialize backup store: %w", err)
	}

	snapshots, err := bs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots found.")
		return nil
	}

	table := output.NewTableData("KEY", "SIZE", "UPLOADED")
	for _, snap := range snapshots {
		table.AddRow(
			snap.Key,
			humanize.Bytes(uint64(snap.Size)),
			timeutil.FormatTime(snap.LastModified),
		)
	}
	table.Render(os.Stdout)
	return nil
}
