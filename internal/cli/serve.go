package cli

import (
	"ihk_prep_backend/internal/app"
	"ihk_prep_backend/internal/config"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			application, err := app.NewApp(cfg)
			if err != nil {
				return err
			}
			application.Run()
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "override the configured listen port")
	return cmd
}
