package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/envelope/internal/app"
	"github.com/allisson/envelope/internal/config"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
)

// RunServer starts the HTTP server with graceful shutdown support.
// Every persisted key ring is loaded into the encryption processor before the
// listeners open. Blocks until receiving SIGINT/SIGTERM or encountering a fatal
// error, then stops both listeners within DBConnMaxLifetime.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	gin.SetMode(cfg.GetGinMode())

	// Destroys every enclave and locked buffer once the container is closed.
	defer memguard.Purge()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	keyRingUseCase, err := container.KeyRingUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize key ring use case: %w", err)
	}
	if err := warmUpKeyRings(ctx, keyRingUseCase, logger); err != nil {
		return err
	}

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.Start(groupCtx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})
	if metricsServer != nil {
		group.Go(func() error {
			if err := metricsServer.Start(groupCtx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	// Runs on a signal or when either listener fails.
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		var shutdownErrors []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		return errors.Join(shutdownErrors...)
	})

	return group.Wait()
}

// warmUpKeyRings loads every persisted ring so the first requests do not pay
// for lazy loading.
func warmUpKeyRings(ctx context.Context, keyRingUseCase envelopeUseCase.KeyRingUseCase, logger *slog.Logger) error {
	rings, err := keyRingUseCase.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load key rings: %w", err)
	}
	logger.Info("key rings loaded", slog.Int("count", len(rings)))
	return nil
}
