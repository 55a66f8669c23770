// Package main is the entry point for the chatrelay ingest service.
//
// It loads configuration, builds the notification pipeline (policy engine,
// message builder, endpoint resolver, delivery client) behind the dispatch
// engine, and serves the ingest API: POST /v1/events (bearer-token
// authenticated), GET /health, and GET /metrics.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"chatrelay/internal/api/handlers"
	"chatrelay/internal/config"
	"chatrelay/internal/core"
	"chatrelay/internal/dispatch"
	"chatrelay/internal/notifications/webhook"
	"chatrelay/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("chatrelay starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	appLogger := types.NewSlogLogger(logger)

	// Live feed configuration (routing, exclusion policy, styling). The
	// eager first read fails startup on a missing or unparseable file.
	feeds, err := config.NewFileSource(cfg.FeedFile)
	if err != nil {
		return fmt.Errorf("loading feed configuration: %w", err)
	}

	client, err := webhook.NewClient(cfg.Delivery, appLogger.With("component", "webhook"))
	if err != nil {
		return fmt.Errorf("creating delivery client: %w", err)
	}

	engine, err := dispatch.NewEngine(cfg.Delivery.PrimaryURL, feeds, client, appLogger.With("component", "dispatch"))
	if err != nil {
		return fmt.Errorf("creating dispatch engine: %w", err)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.MountRoutes()

	eventsHandler := handlers.NewEventsHandler(engine, appLogger.With("component", "ingest"))
	srv.Router().Route("/v1", func(r chi.Router) {
		r.Use(core.BearerAuth(cfg.Server.IngestToken))
		eventsHandler.RegisterRoutes(r)
	})

	return runHTTPServer(srv, cfg, logger)
}

// runHTTPServer starts the server with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return srv.Shutdown(ctx)
}

// newLogger creates a structured slog.Logger configured for the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
