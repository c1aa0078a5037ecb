package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func filingCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filing",
		Short: "Inspect filings",
	}
	cmd.AddCommand(filingListCmd(envFile))
	return cmd
}

func filingListCmd(envFile *string) *cobra.Command {
	var (
		taxpayerID uint
		tradeID    uint
		year       int
		month      int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a trade's filings for a year or a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(envFile, func(ctx context.Context, a *app) error {
				filings, err := a.filings.FindByPeriod(ctx, taxpayerID, tradeID, year, month)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(filings)
				}
				if len(filings) == 0 {
					fmt.Println("No filings.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "PERIOD\tAMOUNT\tFEE\tON TIME\tFLAGS")
				for _, f := range filings {
					var flags []string
					if f.Backfilled {
						flags = append(flags, "backfilled")
					}
					if f.Rectified {
						flags = append(flags, "rectified")
					}
					if f.Transmitted {
						flags = append(flags, "transmitted")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", f.Period, f.Amount, f.ComputedFee, f.FiledOnTime, strings.Join(flags, ","))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().UintVar(&taxpayerID, "taxpayer", 0, "Taxpayer ID")
	cmd.Flags().UintVar(&tradeID, "trade", 0, "Trade ID")
	cmd.Flags().IntVar(&year, "year", 0, "Year")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12; 0 for the whole year")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("taxpayer")
	_ = cmd.MarkFlagRequired("trade")
	_ = cmd.MarkFlagRequired("year")

	return cmd
}
