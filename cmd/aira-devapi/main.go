package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/aira/adapter/api"
	"github.com/felixgeelhaar/aira/internal/devapi/store"
	"github.com/felixgeelhaar/aira/pkg/config"
	"github.com/felixgeelhaar/aira/pkg/observability"
)

func main() {
	// Setup logger
	logger := observability.LoggerFromEnv(observability.ServerLogConfig("aira-devapi"))

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open the store
	st, err := store.Open(ctx, store.Config{
		Driver:     store.Driver(cfg.DevAPIDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.DevAPISQLitePath,
	})
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.DevAPIDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := store.Seed(ctx, st); err != nil {
		logger.Error("failed to seed store", "error", err)
		os.Exit(1)
	}
	logger.Info("store ready", "driver", cfg.DevAPIDriver)

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.DevAPIAddr
	serverCfg.Token = cfg.APIToken
	server := api.NewServer(serverCfg, st, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("development API stopped")
}
