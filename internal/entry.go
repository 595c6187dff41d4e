// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/vitrine/internal/api"
	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/kvstore"
	"github.com/starford/vitrine/internal/mcpserver"
	"github.com/starford/vitrine/internal/portfolio"
	"github.com/starford/vitrine/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := openStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.SSE.SidebarThrottle)
	defer broker.Close()

	svc := portfolio.New(store, cat, cfg.Portfolio(), broker, logger)
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open portfolio: %w", err)
	}
	logger.Info("Portfolio opened",
		slog.Int("works", cat.Len()),
		slog.Int("photos", len(svc.Photos())),
		slog.Int("exhibition_items", len(svc.Items())))

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Upload.MaxBytes)

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
		_, _ = fmt.Fprintf(w, `{"status":"ok","sse_clients":%d}`, broker.ClientCount())
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the catalog file on change and reconcile exhibition flags.
	if cfg.Catalog.Path != "" && cfg.Catalog.Watch {
		g.Go(func() error {
			err := cat.Watch(gCtx, cfg.Catalog.Path, logger, func() {
				svc.CatalogReloaded(gCtx)
			})
			if err != nil {
				logger.Warn("catalog watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

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
		// Stop the watcher too.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, os.Stderr)
	slog.SetDefault(logger)

	store, err := openStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}

	svc := portfolio.New(store, cat, cfg.Portfolio(), nil, logger)
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open portfolio: %w", err)
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// errShutdown cancels the errgroup context once the server has stopped.
var errShutdown = errors.New("shutdown")

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the structured JSON logger. With App.LogFile set, records
// are also written to a size-rotated file.
func newLogger(cfg ApplicationConfig, console io.Writer) *slog.Logger {
	w := console
	if cfg.LogFile != "" {
		w = io.MultiWriter(console, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

func openStore(cfg StoreConfig) (kvstore.Store, error) {
	switch cfg.Driver {
	case StoreDriverFS:
		fs, err := kvstore.OpenFS(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case StoreDriverSQLite, "":
		db, err := kvstore.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func loadCatalog(cfg CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.New(catalog.Default()), nil
	}
	works, err := catalog.LoadFile(cfg.Path)
	if err != nil {
		return nil, err
	}
	return catalog.New(works), nil
}
