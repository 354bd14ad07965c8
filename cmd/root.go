package cmd

import (
	"github.com/3mragent/moltbot/internal/config"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "moltbot",
		Short:         "Moltbook reply agent for a single submolt",
		Long:          "moltbot watches one submolt for fresh debate-worthy posts and replies at most once per post, with dry-run as the default mode.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the JSON config file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(&configPath),
		newStatusCmd(&configPath),
		newAgentCmd(&configPath),
	)

	return rootCmd
}
