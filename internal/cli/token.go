package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finassist.com/finance-chatbot/internal/auth"
	"finassist.com/finance-chatbot/internal/config"
)

func newTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a development bearer token for a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(config.NeedAuth)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			token, err := auth.GenerateJWT(cfg.JWTSecret, args[0], ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
