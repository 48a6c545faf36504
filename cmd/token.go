package main

import (
	"errors"
	"fmt"
	"time"

	"coin-heist/internal/config"
	"coin-heist/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newTokenCommand issues bearer tokens for chat front-ends and operators.
func newTokenCommand(log *zap.Logger) *cobra.Command {
	var (
		userID string
		roles  []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			token, err := service.NewAuthService(log, cfg.JWTSecret).IssueToken(userID, roles, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "chat user ID the token is issued for")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to embed, repeatable")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
