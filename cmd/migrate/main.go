package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the meeting-taskflow database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newUpCommand())
	root.AddCommand(newDownCommand())
	root.AddCommand(newStatusCommand())

	return root
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				n, err := database.MigrateUp(db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
				return nil
			})
		},
	}
}

func newDownCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return fmt.Errorf("--steps must not be negative")
			}
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				n, err := database.MigrateDown(db, steps)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back (0 rolls back all)")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrations and when they were applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				records, err := database.Status(db)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "MIGRATION\tAPPLIED AT")
				for _, r := range records {
					applied := "pending"
					if r.AppliedAt != nil {
						applied = r.AppliedAt.Local().Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%s\n", r.ID, applied)
				}
				return w.Flush()
			})
		},
	}
}

func withDB(ctx context.Context, fn func(db *gorm.DB) error) error {
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return err
	}

	db, err := database.NewPostgresDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	return fn(db)
}
