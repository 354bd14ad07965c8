package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/3mragent/moltbot/internal/adapters/compose"
	"github.com/3mragent/moltbot/internal/application"
	"github.com/spf13/cobra"
)

func newRunCmd(configPath *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reply agent (continuous loop by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			guide := compose.DefaultGuidelines()
			app.logger.Info("starting agent",
				"agent", app.cfg.Name,
				"submolt", app.cfg.Submolt,
				"dry_run", app.cfg.DryRun,
				"once", once,
			)
			app.logger.Debug("composer style",
				"relevance_filter", guide.RelevanceFilter,
				"emotional_style", guide.EmotionalStyle,
				"posting_style", guide.PostingStyle,
			)

			if once {
				report, err := app.cycles.RunCycle(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
				app.logger.Info("cycle complete",
					"evaluated", report.Evaluated(),
					"posted", report.Posted,
					"dry_runs", report.DryRuns,
					"budget_skipped", report.SkippedBudget,
				)
				return nil
			}

			loop := application.NewLoop(app.cycles, application.LoopConfig{
				MinDelay: app.cfg.MinLoopDelay,
				MaxDelay: app.cfg.MaxLoopDelay,
			})

			return loop.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single cycle and exit")

	return cmd
}
