package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/config"
	"finassist.com/finance-chatbot/internal/observability"
	"finassist.com/finance-chatbot/internal/store"
)

// NewRootCmd builds the finbot command tree. Running finbot without a
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:   "finbot",
		Short: "Finance customer-service chat assistant",
		Long: `finbot answers banking questions with a hosted language model, grounded
on a curated FAQ knowledge base, and labels every reply with an intent.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newSeedCmd(), newTokenCmd(), newGrantAdminCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads settings for need and builds the logger they ask for.
func loadConfig(need config.Requirement) (*config.Config, *zap.Logger, error) {
	cfg, envFileLoaded, err := config.LoadFor(need)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if !envFileLoaded {
		logger.Debug("no .env file found, using process environment")
	}
	return cfg, logger, nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageSupabase:
		logger.Info("using supabase storage", zap.String("url", cfg.SupabaseURL))
		s, err := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize supabase store: %w", err)
		}
		return s, nil
	case config.StorageSQLite:
		logger.Info("using sqlite storage", zap.String("dsn", cfg.DatabaseURL))
		s, err := store.NewSQLiteStore(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
