package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/taskflow/task-tracker-api/internal/client"
	"github.com/taskflow/task-tracker-api/internal/dto"
)

type boardOptions struct {
	URL      string
	Email    string
	Password string
}

func newBoardCommand() *cobra.Command {
	opts := &boardOptions{}

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Sign in and print the task board",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(opts.URL)
			if _, err := c.Login(cmd.Context(), opts.Email, opts.Password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			b, err := c.Board(cmd.Context())
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), b)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "http://localhost:3000", "API base URL")
	cmd.Flags().StringVar(&opts.Email, "email", "owner@test.com", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func printBoard(w io.Writer, b *dto.BoardDTO) {
	columns := []struct {
		name  string
		tasks []dto.TaskDTO
	}{
		{"NEW", b.New},
		{"IN PROGRESS", b.InProgress},
		{"COMPLETED", b.Completed},
	}

	for i, col := range columns {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", col.name, len(col.tasks))
		for _, t := range col.tasks {
			fmt.Fprintf(w, "  #%d [%s] %s\n", t.ID, t.Category, t.Title)
		}
	}
}
