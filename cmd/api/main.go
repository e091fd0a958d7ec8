package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	api "github.com/lutheralien/to-do-api/internal/adapter/http"
	tel "github.com/lutheralien/to-do-api/internal/adapter/telemetry"
	"github.com/lutheralien/to-do-api/pkg/config"
)

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup so they complete before the exit code is
// handed to os.Exit.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Println("Failed to load configuration:", err)
		return 1
	}

	logger, err := config.NewLokiLogger(cfg.ServiceName, cfg.LokiURL, cfg.ZapLevel())
	if err != nil {
		log.Println("Failed to initialize Loki logger:", err)
		return 1
	}

	defer logger.Sync()

	telemetry, err := tel.NewContainer(ctx, tel.ConfigFromApp(cfg), logger)
	if err != nil {
		logger.Logger.Error("Failed to initialize telemetry", zap.Error(err))
		return 1
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	telemetry.AppMetrics.StartSystemMetrics(ctx)

	if err := api.StartServer(ctx, cfg, telemetry.AppMetrics, logger, telemetry.NewTelemetryProbe(logger)); err != nil {
		logger.Logger.Error("Server stopped with error", zap.Error(err))
		return 1
	}

	return 0
}
