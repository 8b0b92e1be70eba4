// Package internal provides the main application initialization and runtime logic.
package internal

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
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/pmartynov/otvet/internal/api"
	"github.com/pmartynov/otvet/internal/generator"
	"github.com/pmartynov/otvet/internal/letters"
	"github.com/pmartynov/otvet/internal/mcpserver"
	"github.com/pmartynov/otvet/internal/pipeline"
	"github.com/pmartynov/otvet/internal/registry"
	"github.com/pmartynov/otvet/internal/sse"
	"github.com/pmartynov/otvet/internal/stats"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout belongs to the
	// stdio transport, so logs go to stderr.
	logOut := os.Stdout
	if app.mcpMode {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("registry_path", cfg.Registry.Path),
		slog.String("letters_path", cfg.Letters.Path),
		slog.String("generator_url", cfg.Generator.URL),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Load the template registry. A missing or malformed configuration is
	// fatal: the service must not start without a valid registry.
	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	snap := reg.Snapshot()
	logger.Info("Registry loaded",
		slog.Int("templates", len(snap.Templates)),
		slog.Int("actions", len(snap.Actions)),
		slog.String("search_mode", snap.Settings.SearchMode))

	// Letter-body store.
	if err := os.MkdirAll(cfg.Letters.Path, 0o755); err != nil {
		return fmt.Errorf("create letters dir: %w", err)
	}
	store, err := letters.NewFS(cfg.Letters.Path)
	if err != nil {
		return fmt.Errorf("init letters store: %w", err)
	}
	assembler := letters.NewAssembler(store, cfg.Letters.DefaultTo)

	// Generation client.
	gen := generator.NewHTTP(cfg.Generator.URL, cfg.Generator.Timeout(), generator.Params{
		MaxLength:   cfg.Generator.MaxLength,
		Temperature: cfg.Generator.Temperature,
		TopP:        cfg.Generator.TopP,
	})

	pipe := pipeline.New(reg, assembler, gen, cfg.Links.Path)

	if app.mcpMode {
		logger.Info("Serving MCP tools on stdio")
		return mcpserver.New(pipe, reg).ServeStdio()
	}

	// Statistics store.
	db, err := stats.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init stats: %w", err)
	}
	defer db.Close()

	// SSE broker for registry events.
	broker := sse.NewBroker()
	defer broker.Close()

	// Build API handler and router.
	h := api.NewHandler(pipe, reg, db, broker)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the template configuration for hot reload.
	g.Go(func() error {
		return registry.Watch(gCtx, reg, logger, func() {
			broker.PublishRegistryEvent("reloaded", map[string]string{})
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
