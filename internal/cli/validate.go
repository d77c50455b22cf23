package cli

import (
	"encoding/json"
	"fmt"

	"ihk_prep_backend/internal/app"
	"ihk_prep_backend/internal/config"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the content corpus and its category assignments",
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

			report, err := application.Services.Validation.ValidateCategoryMappings(cmd.Context())
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(report, "", "  ")
			fmt.Println(string(out))
			if !report.IsValid {
				return fmt.Errorf("%d validation errors", len(report.Errors))
			}
			return nil
		},
	}
}
