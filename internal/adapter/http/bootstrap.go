package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lutheralien/to-do-api/internal/adapter/http/routes"
	"github.com/lutheralien/to-do-api/internal/core/port"
	"github.com/lutheralien/to-do-api/internal/core/telemetry"
	"github.com/lutheralien/to-do-api/pkg/config"
)

// StartServer serves the API until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func StartServer(ctx context.Context, cfg *config.AppConfig, metrics *telemetry.AppMetrics, logger *config.LokiLogger, probe port.Telemetry) error {
	container, err := NewContainer(ctx, cfg, logger, probe)
	if err != nil {
		return err
	}

	router := routes.SetupRouterWithConfig(routes.HandlersConfig{
		TodoHandler:   container.TodoHandler,
		HealthHandler: container.HealthHandler,
	}, metrics, logger, cfg, container.Cache)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Logger.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimitEnabled),
		zap.Bool("https_enforced", cfg.EnforceHTTPS))

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		_ = container.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	logger.Logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("Server shutdown failed", zap.Error(err))
	}

	return container.Close(shutdownCtx)
}
