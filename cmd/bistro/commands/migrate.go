package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bistrokit/bistro/internal/logger"
	"github.com/bistrokit/bistro/pkg/config"
	"github.com/bistrokit/bistro/pkg/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations for the bistro database.

This command applies pending schema migrations to the configured database
(SQLite or PostgreSQL). It is required after upgrading bistro when schema
changes have been made.

Examples:
  # Run migrations with default config
  bistro migrate

  # Run migrations with custom config
  bistro migrate --config /etc/bistro/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("running database migrations", "type", cfg.Database.Type)

	// Opening the store triggers auto-migration.
	st, err := store.New(&cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer st.Close()

	// Verify the schema by running a trivial query.
	if _, err := st.ListTables(context.Background()); err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}

	fmt.Printf("Migrations completed successfully (database type: %s)\n", cfg.Database.Type)
	return nil
}
