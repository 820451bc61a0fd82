package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "leasehold",
		Short:         "Leasehold: per-kind session stores for users, agents and admins",
		Long:          "leasehold keeps one session per account kind (user, agent, admin), persists it to cookies or durable storage, restores it on start and guards the routes that need it.",
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

	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSessionCmd(app),
		newStatusCmd(app),
		newServeCmd(app),
	)

	return rootCmd
}
