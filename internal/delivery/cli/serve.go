package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpDelivery "github.com/formulary/backend/internal/delivery/http"
	"github.com/formulary/backend/internal/infrastructure/cache"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/formulary/backend/internal/infrastructure/records"
	"github.com/formulary/backend/internal/usecase"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, opts)
		},
	}
}

func runServer(ctx context.Context, opts *RootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting formulary backend",
		logging.String("version", Version),
		logging.String("environment", cfg.Server.Environment),
		logging.String("port", cfg.Server.Port),
		logging.String("records", cfg.Records.Type),
		logging.String("cache", cfg.Cache.Type))

	source, closeSource, err := buildRecordSource(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	resolutionCache, closeCache, err := buildCache(ctx, cfg, logger)
	if err != nil {
		logger.Warn("cache unavailable, falling back to memory", logging.Err(err))
		memory := cache.NewMemoryCache(0)
		resolutionCache, closeCache = memory, memory.Close
	}
	defer closeCache()

	snapshots := records.NewSnapshotStore(source, logger)
	refresher := records.NewRefresher(snapshots, cfg.Refresh.Interval, logger)
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop()

	service := usecase.NewFormulaService(snapshots, resolutionCache, logger, usecase.FormulaServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	handler := httpDelivery.NewHandler(service, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", logging.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", logging.Err(err))
		return server.Close()
	}
	logger.Info("server shutdown complete")
	return nil
}
