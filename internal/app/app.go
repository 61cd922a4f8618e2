package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/shared/config"
)

// App represents the application.
type App struct {
	deps    *Dependencies
	cleanup func()
	router  *gin.Engine
}

// LoadConfig loads application configuration. An explicit path takes
// precedence over the default search locations.
func LoadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	deps, cleanup, err := InitializeDependencies(cfg)
	if err != nil {
		return nil, fmt.Errorf("init dependencies: %w", err)
	}

	app := &App{
		deps:    deps,
		cleanup: cleanup,
	}
	app.router = app.setupRouter()

	deps.ZapLogger.Info("application initialized",
		zap.String("identity_mode", cfg.Identity.Mode),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("redis", deps.Redis != nil),
	)
	return app, nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application's zap logger.
func (a *App) Logger() *zap.Logger {
	return a.deps.ZapLogger
}

// Serve listens on server.address until ctx is done, then drains in-flight
// requests for up to server.shutdown_timeout.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.deps.Config.Server
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      a.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.deps.ZapLogger.Info("starting server", zap.String("address", cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	a.deps.ZapLogger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Stop releases the database, Redis and logger.
func (a *App) Stop() {
	if a.cleanup != nil {
		a.cleanup()
	}
}
