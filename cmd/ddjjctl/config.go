package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ddjj/internal/service"

	"github.com/spf13/cobra"
)

func configCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the filing policy",
	}
	cmd.AddCommand(configShowCmd(envFile), configSetCmd(envFile))
	return cmd
}

func configShowCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app) error {
				cfg, err := a.configs.GetConfiguration(ctx)
				if err != nil {
					return err
				}
				return printJSON(cfg)
			})
		},
	}
}

func configSetCmd(envFile *string) *cobra.Command {
	var (
		deadlineDay int
		rate        string
		defAmount   string
		discount    string
		actor       string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the configuration; unset flags keep their current value",
		Long: `Change the configuration. Existing filings keep the fee computed when
they were filed. A running API server picks up a new deadline day on its
next restart; use PUT /api/configuration to reschedule it live.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app) error {
				current, err := a.configs.GetConfiguration(ctx)
				if err != nil {
					return err
				}
				req := service.UpdateConfigurationRequest{
					DeadlineDay:          current.DeadlineDay,
					CurrentRate:          current.CurrentRate,
					DefaultAmount:        current.DefaultAmount,
					GoodTaxpayerDiscount: current.GoodTaxpayerDiscount,
				}
				if cmd.Flags().Changed("deadline-day") {
					req.DeadlineDay = deadlineDay
				}
				if cmd.Flags().Changed("rate") {
					req.CurrentRate = rate
				}
				if cmd.Flags().Changed("default-amount") {
					req.DefaultAmount = defAmount
				}
				if cmd.Flags().Changed("discount") {
					req.GoodTaxpayerDiscount = discount
				}

				updated, err := a.configs.UpdateConfiguration(ctx, req, actor)
				if err != nil {
					return err
				}
				return printJSON(updated)
			})
		},
	}

	cmd.Flags().IntVar(&deadlineDay, "deadline-day", 0, "Day of month (1-31) after which filings are late")
	cmd.Flags().StringVar(&rate, "rate", "", "Rate applied to the declared amount, e.g. 0.08")
	cmd.Flags().StringVar(&defAmount, "default-amount", "", "Minimum fee and placeholder amount, e.g. 9999")
	cmd.Flags().StringVar(&discount, "discount", "", "Good taxpayer discount, e.g. 0.10")
	cmd.Flags().StringVar(&actor, "actor", "ddjjctl", "Name recorded in the audit log")

	return cmd
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
