package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/config"
	"finassist.com/finance-chatbot/internal/core"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the curated finance FAQs into an empty knowledge base",
		Long: `Load the curated finance FAQs into the knowledge base and exit.

Nothing is written when the knowledge base already holds entries, so the
command is safe to run on every deploy.`,
		Args: cobra.NoArgs,
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

			result, err := core.NewFAQService(dbStore, nil, logger).Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if result.Skipped() {
				fmt.Fprintf(out, "FAQs already exist (%d entries). Skipping seed.\n", result.Existing)
				return nil
			}
			logger.Info("seed complete", zap.Int("inserted", result.Inserted))
			fmt.Fprintf(out, "Successfully seeded %d real finance FAQs\n", result.Inserted)
			return nil
		},
	}
}
