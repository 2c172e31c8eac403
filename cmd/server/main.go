package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "task-tracker",
		Short:         "Multi-tenant task tracker API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newBoardCommand())

	return cmd
}
