package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "visionary",
		Short:         "Visionary: chat with the media rates knowledge base",
		Long:          "visionary sends questions to the Visionary assistant, keeps every conversation in ~/.visionary/sessions.toml, and manages the knowledge base behind it.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		app.stderr.Set(cmd.ErrOrStderr())
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		_ = app.logger.Sync()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAskCmd(app),
		newEditCmd(app),
		newChatCmd(app),
		newSessionCmd(app),
		newIngestCmd(app),
		newStatusCmd(app),
		newDocCmd(app),
		newSecretCmd(app),
	)

	return rootCmd
}
