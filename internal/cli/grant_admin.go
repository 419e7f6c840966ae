package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/config"
	"finassist.com/finance-chatbot/internal/store"
)

func newGrantAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant-admin <user-id>",
		Short: "Give a user access to the admin analytics view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(config.NeedStorage)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			dbStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer dbStore.Close()

			userID := args[0]
			if err := dbStore.GrantRole(cmd.Context(), userID, store.AppRoleAdmin); err != nil {
				return fmt.Errorf("granting admin role: %w", err)
			}
			logger.Info("granted admin role", zap.String("user_id", userID))
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", userID)
			return nil
		},
	}
}
