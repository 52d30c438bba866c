package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hobbsbbs/hobbs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Load and validate the configuration without starting the server.

Exits non-zero with the first validation error found.`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid")
	fmt.Fprintf(out, "  listen:    %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintf(out, "  database:  %s\n", cfg.Database.Driver)
	fmt.Fprintf(out, "  blob:      %s\n", cfg.Blob.Driver)
	return nil
}
