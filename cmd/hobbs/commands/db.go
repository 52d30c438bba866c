package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hobbsbbs/hobbs/pkg/config"
	"github.com/hobbsbbs/hobbs/pkg/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long: `Bring the configured database schema up to date.

The server migrates on startup; this command is for applying schema
changes ahead of a deploy, or for preparing a shared PostgreSQL
database before the first start.`,
	RunE: runDBMigrate,
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := store.Migrate(&cfg.Database); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Database schema is up to date (%s)\n", cfg.Database.Driver)
	return nil
}
