package config

import (
	"fmt"

	"github.com/bistrokit/bistro/pkg/config"
	"github.com/bistrokit/bistro/pkg/store"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the bistro configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  bistro config validate

  # Validate specific config file
  bistro config validate --config /etc/bistro/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Config path comes from the root command's persistent flag.
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string

	if cfg.API.Enabled && !cfg.API.HasJWTSecret() {
		warnings = append(warnings, "JWT secret not configured - ops API authentication will fail")
	}
	if !cfg.Journal.Enabled {
		warnings = append(warnings, "Audit journal disabled - admin actions will not be recorded")
	}
	if cfg.Backup.Enabled && cfg.Database.Type != store.DatabaseTypeSQLite {
		warnings = append(warnings, "Backups only snapshot SQLite databases - use pg_dump for PostgreSQL")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Gateway port:    %d\n", cfg.Gateway.Port)
	fmt.Printf("  Database type:   %s\n", cfg.Database.Type)
	fmt.Printf("  Ops API port:    %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
