package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/3mragent/moltbot/internal/adapters/render/status"
	"github.com/spf13/cobra"
)

func newStatusCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show reply history, advice memory, and the hourly budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(*configPath)
			if err != nil {
				return err
			}

			summary, err := app.cycles.Summary(cmd.Context())
			if err != nil {
				return fmt.Errorf("load state summary: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			rendered := statusadapter.Render(summary, statusadapter.RenderOptions{
				AgentName:          app.cfg.Name,
				Submolt:            app.cfg.Submolt,
				DryRun:             app.cfg.DryRun,
				MaxCommentsPerHour: app.cfg.MaxCommentsPerHour,
				MaxAdviceShown:     10,
			})

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output machine-readable JSON")

	return cmd
}
