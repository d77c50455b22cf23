package cli

import (
	"encoding/json"
	"fmt"

	"ihk_prep_backend/internal/app"
	"ihk_prep_backend/internal/config"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate stored progress to the three-tier category structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			application, err := app.NewApp(cfg)
			if err != nil {
				return err
			}
			defer application.Services.Relationships.Close()

			ctx := cmd.Context()
			needed, reason, err := application.Services.Migration.CheckMigrationNeeded(ctx)
			if err != nil {
				return err
			}
			if !needed {
				fmt.Printf("nothing to do: %s\n", reason)
				return nil
			}
			if dryRun {
				fmt.Printf("migration needed: %s\n", reason)
				return nil
			}

			result, err := application.Services.Migration.MigrateProgress(ctx)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report whether a migration would run")
	return cmd
}

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <migration-id>",
		Short: "Restore the pre-migration snapshot of a given migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			application, err := app.NewApp(cfg)
			if err != nil {
				return err
			}
			defer application.Services.Relationships.Close()

			result, err := application.Services.Migration.RollbackMigration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(result.Message)
			return nil
		},
	}
}
