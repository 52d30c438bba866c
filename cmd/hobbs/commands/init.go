package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hobbsbbs/hobbs/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Create a configuration file populated with the default values.

Examples:
  # Create config at the default location
  hobbs init

  # Create config at a custom path
  hobbs init --config /etc/hobbs/config.yaml

  # Overwrite an existing config
  hobbs init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Edit the configuration file to customize your board")
	fmt.Fprintln(out, "  2. Start the server with: hobbs start")
	return nil
}
