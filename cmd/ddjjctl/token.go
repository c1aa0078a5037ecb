package main

import (
	"fmt"
	"time"

	"ddjj/internal/config"
	"ddjj/internal/middleware"

	"github.com/spf13/cobra"
)

func tokenCmd(envFile *string) *cobra.Command {
	var (
		subject    string
		role       string
		taxpayerID uint
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			switch role {
			case middleware.RoleAdmin, middleware.RoleOperator:
			case middleware.RoleTaxpayer:
				if taxpayerID == 0 {
					return fmt.Errorf("--taxpayer is required for the %s role", role)
				}
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			middleware.InitAuth(cfg.Auth.JWTSecret)
			tok, err := middleware.IssueToken(subject, role, taxpayerID, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject, recorded as the actor in audit entries")
	cmd.Flags().StringVar(&role, "role", middleware.RoleOperator, "admin, operator or taxpayer")
	cmd.Flags().UintVar(&taxpayerID, "taxpayer", 0, "Taxpayer ID for taxpayer tokens")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
