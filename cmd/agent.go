package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// The claim check talks to the live API, so it sits outside the reply loop;
// operators run it once after registering the agent.
func newAgentCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect the agent's registration on Moltbook",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Check whether the agent account is claimed and active",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(*configPath)
			if err != nil {
				return err
			}

			status, err := app.feed.AgentStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch agent status: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "name: %s\nclaimed: %t\nstatus: %s\n",
				status.Name, status.Claimed, status.Status)
			return err
		},
	})

	return cmd
}
