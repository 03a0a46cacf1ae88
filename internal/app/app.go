// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the sumcache server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"sumcache/config"
	"sumcache/internal/cache"
	"sumcache/internal/memo"
	"sumcache/internal/server"
)

// App represents the main application with all its dependencies.
type App struct {
	config   *config.Config
	store    *memo.StoreResult
	hot      *cache.RedisCache
	memoizer *memo.Memoizer
	server   *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig is the loaded application configuration produced by config.Load.
	AppConfig *config.Config
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	appCfg := cfg.AppConfig

	app := &App{config: appCfg}

	storeResult, err := memo.NewStore(ctx, appCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}
	app.store = storeResult

	opts := memo.Options{
		Coalesce:         appCfg.Memo.Coalesce,
		OperationTimeout: time.Duration(appCfg.Memo.OperationTimeout) * time.Second,
	}

	// The hot cache is optional; the durable store alone is always correct.
	if appCfg.Cache.Redis.URL != "" {
		hot, err := cache.NewRedisCache(cache.RedisConfig{
			URL:       appCfg.Cache.Redis.URL,
			KeyPrefix: appCfg.Cache.Redis.KeyPrefix,
			TTL:       time.Duration(appCfg.Cache.Redis.TTL) * time.Second,
		})
		if err != nil {
			slog.Warn("redis hot cache unavailable, continuing without it", "error", err)
		} else {
			app.hot = hot
			opts.HotCache = hot
		}
	}

	m, err := memo.New(storeResult.Store, opts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create memoizer: %w", err), storeResult.Close())
	}
	app.memoizer = m

	checks := map[string]server.Pinger{"storage": storeResult}
	if app.hot != nil {
		checks["cache"] = app.hot
	}

	if appCfg.Server.SwaggerEnabled {
		slog.Info("swagger UI enabled", "path", "/swagger/index.html")
	}

	app.server = server.New(m, &server.Config{
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		BodySizeLimit:   appCfg.Server.BodySizeLimit,
		SwaggerEnabled:  appCfg.Server.SwaggerEnabled,
		Checks:          checks,
	})

	app.logStartupInfo()
	return app, nil
}

// Memoizer returns the memoized sum service.
func (a *App) Memoizer() *memo.Memoizer {
	return a.memoizer
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Addr formats the configured listen address.
func (a *App) Addr() string {
	return net.JoinHostPort("", a.config.Server.Port)
}

// Shutdown gracefully tears down app components in dependency order:
// the HTTP server first, then the hot cache, then the record store.
//
// Shutdown is idempotent. It attempts every step and returns a joined error if any fail.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.hot != nil {
		if err := a.hot.Close(); err != nil {
			slog.Error("hot cache close error", "error", err)
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Error("record store close error", "error", err)
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	slog.Info("record store initialized", "type", cfg.Storage.Type)

	if a.hot != nil {
		slog.Info("hot cache enabled", "backend", "redis")
	} else {
		slog.Info("hot cache disabled")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	slog.Info("memoizer configured",
		"coalesce", cfg.Memo.Coalesce,
		"operation_timeout_seconds", cfg.Memo.OperationTimeout,
	)
}
