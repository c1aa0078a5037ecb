package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ddjj/internal/backfill"

	"github.com/spf13/cobra"
)

func backfillCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Placeholder filings for trades that missed the deadline",
	}
	cmd.AddCommand(backfillRunCmd(envFile))
	return cmd
}

func backfillRunCmd(envFile *string) *cobra.Command {
	var ifDue bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create placeholders for every active trade without a filing this month",
		Long: `Create placeholder filings for the current period. By default it runs
regardless of the deadline day; with --if-due it does nothing until the
deadline has passed. Safe to run while the API server is up: a placeholder
never replaces an existing filing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				var (
					report backfill.Report
					err    error
				)
				if ifDue {
					var ran bool
					report, ran, err = a.scheduler.RunIfDue(ctx, backfill.TriggerManual)
					if err == nil && !ran {
						fmt.Println("Deadline not reached yet, nothing to do.")
						return nil
					}
				} else {
					report, err = a.scheduler.Run(ctx, backfill.TriggerManual)
				}
				if err != nil {
					return err
				}

				fmt.Printf("Batches:  %d\n", report.Batches)
				fmt.Printf("Inserted: %d\n", report.Inserted)
				fmt.Printf("Elapsed:  %s\n", report.FinishedAt.Sub(report.StartedAt))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&ifDue, "if-due", false, "Only run when this month's deadline has passed")
	return cmd
}
