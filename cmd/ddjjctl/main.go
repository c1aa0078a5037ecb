// Command ddjjctl is the operator CLI: it reads and changes the filing policy,
// runs the backfill by hand, lists filings and issues API tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "ddjjctl",
		Short:         "ddjjctl - administration of the DDJJ filing service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "configs/.env", "Environment file to load before the process environment")

	rootCmd.AddCommand(configCmd(&envFile))
	rootCmd.AddCommand(backfillCmd(&envFile))
	rootCmd.AddCommand(filingCmd(&envFile))
	rootCmd.AddCommand(tokenCmd(&envFile))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
