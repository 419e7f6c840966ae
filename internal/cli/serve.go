package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finassist.com/finance-chatbot/internal/api"
	"finassist.com/finance-chatbot/internal/config"
	"finassist.com/finance-chatbot/internal/core"
	"finassist.com/finance-chatbot/internal/observability"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(config.NeedAll)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	dbStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer dbStore.Close()

	completion, closeCompletion, err := core.NewCompletionClient(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize completion client: %w", err)
	}
	defer closeCompletion() //nolint:errcheck

	metrics := observability.NewMetrics("finbot")
	pipeline := core.NewPipeline(dbStore, dbStore, dbStore, completion, logger,
		core.WithContextLimit(cfg.KnowledgeContextLimit),
		core.WithMetrics(metrics))

	apiHandler := api.NewAPIHandler(
		core.NewChatService(dbStore, pipeline, logger),
		core.NewFAQService(dbStore, metrics, logger),
		core.NewAnalyticsService(dbStore),
		cfg.JWTSecret,
		logger,
	)
	router := api.NewRouter(apiHandler, metrics, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // completion calls can be slow
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", serverAddr),
			zap.String("storage", cfg.StorageBackend),
			zap.String("completion_provider", cfg.CompletionProvider),
			zap.String("model", cfg.CompletionModel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down server", zap.Error(ctx.Err()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exiting gracefully")
	return nil
}
