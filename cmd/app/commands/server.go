package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/allisson/tabvault/internal/app"
	"github.com/allisson/tabvault/internal/config"
	internalHTTP "github.com/allisson/tabvault/internal/http"
)

// RunServer starts the API and metrics servers with graceful shutdown
// support. A background job sweeps expired feed cache entries at the
// configured interval. Blocks until receiving SIGINT/SIGTERM or encountering
// a fatal error.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	feedCache, err := container.FeedCache()
	if err != nil {
		return fmt.Errorf("failed to initialize feed cache: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Periodic sweep keeps the persisted feed snapshot from accumulating
	// entries nobody will read again.
	sched := container.Scheduler()
	sched.Add("feed_cache_sweep", cfg.FeedSweepInterval, func(taskCtx context.Context) {
		count, err := feedCache.CleanExpired(taskCtx)
		if err != nil {
			logger.Error("feed cache sweep failed", slog.Any("error", err))
			return
		}
		if count > 0 {
			logger.Info("feed cache sweep completed", slog.Int("removed", count))
		}
	})
	sched.Start(ctx)

	serverErr := make(chan error, 2)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErr <- fmt.Errorf("api server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				serverErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return shutdownServers(server, metricsServer, cfg, nil)
	case err := <-serverErr:
		logger.Error("server error, initiating shutdown", slog.Any("error", err))
		return shutdownServers(server, metricsServer, cfg, err)
	}
}

// shutdownServers gracefully stops both servers, joining any errors with the
// optional startup error that triggered the shutdown.
func shutdownServers(
	server *internalHTTP.Server,
	metricsServer *internalHTTP.MetricsServer,
	cfg *config.Config,
	startupErr error,
) error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
	defer shutdownCancel()

	var shutdownErrors []error
	if startupErr != nil {
		shutdownErrors = append(shutdownErrors, startupErr)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return errors.Join(shutdownErrors...)
	}
	return nil
}
