package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskflow/task-tracker-api/internal/config"
	"github.com/taskflow/task-tracker-api/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(config.Load())
			if err != nil {
				return err
			}
			defer database.Close(db)

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the first-run organization and demo accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(config.Load())
			if err != nil {
				return err
			}
			defer database.Close(db)

			result, err := database.Seed(db, newLogger())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Organization == nil && len(result.Users) == 0 {
				fmt.Fprintln(out, "Nothing to seed")
				return nil
			}
			if result.Organization != nil {
				fmt.Fprintf(out, "Organization: %s (id %d)\n", result.Organization.Name, result.Organization.ID)
			}
			for _, u := range result.Users {
				fmt.Fprintf(out, "User: %s (%s)\n", u.Email, u.Role)
			}
			return nil
		},
	}
}
