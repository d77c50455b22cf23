package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("IHK_PREP_CONFIG_PATH")
	if envConfig == "" {
		envConfig = "configs"
	}

	cmd := &cobra.Command{
		Use:   "ihk-prep",
		Short: "Content and progress engine for IHK exam preparation",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "directory containing config.yaml")
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newRollbackCmd())
	cmd.AddCommand(newValidateCmd())
	return cmd
}
