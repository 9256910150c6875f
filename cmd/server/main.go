package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hitpa/claimupload/internal/config"
	"github.com/hitpa/claimupload/internal/core"
	"github.com/hitpa/claimupload/internal/history"
	"github.com/hitpa/claimupload/internal/logging"
	"github.com/hitpa/claimupload/internal/session"
	"github.com/hitpa/claimupload/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"service_url", cfg.Service.BaseURL,
		"history_backend", cfg.History.Backend,
		"api_key_required", cfg.Security.RequireAPIKey,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, closeStore, err := history.Open(ctx, cfg.History)
	if err != nil {
		slog.Error("failed to open response history", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service, err := core.NewService(cfg, store)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	for _, op := range service.Operations() {
		slog.Debug("operation registered", "name", op.Name, "url", op.URL, "method", op.Method)
	}

	sessions := session.NewStore(cfg.Session.IdleTimeout, cfg.Session.SecureCookie)
	go sessions.RunSweeper(ctx, cfg.Session.SweepInterval)

	server := web.NewServer(service, sessions, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.SubmissionStatus(); status.Active > 0 {
			slog.Info("waiting for submissions to complete", "active", status.Active)
			if err := service.WaitForSubmissions(shutdownCtx); err != nil {
				slog.Warn("submissions did not complete in time", "error", err)
			} else {
				slog.Info("all submissions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
