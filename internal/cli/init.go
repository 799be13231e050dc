// Package cli provides common CLI initialization utilities shared by
// cmd/komora-dashboard, cmd/komora-report-worker and cmd/komora-stats.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"komoralink/internal/backend"
	"komoralink/internal/config"
	klog "komoralink/internal/log"
	"komoralink/internal/services"
	"komoralink/internal/wallet"
)

// SetupLogger initializes structured logging from LOG_LEVEL and LOG_FORMAT.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(cfg *config.Config, component string) *klog.Logger {
	return setupLogger(cfg, component, os.Stdout)
}

func setupLogger(cfg *config.Config, component string, out io.Writer) *klog.Logger {
	lc := klog.DefaultConfig()
	lc.Component = component
	lc.Output = out
	if cfg != nil {
		lc.Level = klog.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := klog.New(lc)
	klog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// NewWalletClient builds the wallet API client from the configuration.
// Exits the process on failure.
func NewWalletClient(cfg *config.Config) *wallet.Client {
	client, err := wallet.NewClient(wallet.Config{
		BaseURL:     cfg.WalletAPIURL,
		Timeout:     cfg.WalletTimeout,
		PageLimit:   cfg.WalletPageLimit,
		Concurrency: cfg.FetchConcurrency,
	})
	if err != nil {
		slog.Error("Failed to initialize wallet client", "error", err, "url", cfg.WalletAPIURL)
		os.Exit(1)
	}
	return client
}

// InitBackend creates the report store and the optional exporter and queue.
// Exits the process on failure.
func InitBackend(ctx context.Context, cfg *config.Config) *backend.BackendResult {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		slog.Error("Invalid backend configuration", "error", err, "valid_backends", backend.GetBackendTypeStrings())
		os.Exit(1)
	}
	res, err := backend.NewFactory(slog.Default()).CreateBackend(ctx, bc)
	if err != nil {
		slog.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// NewReportService wires the report service over a backend. A missing
// queue leaves the service without a publisher.
func NewReportService(source services.TransactionSource, res *backend.BackendResult) *services.ReportService {
	var publisher services.ReportPublisher
	if res.Queue != nil {
		publisher = res.Queue
	}
	return services.NewReportService(source, res.Store, res.Exporter, publisher)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			slog.Warn("Shutdown timeout reached")
		} else {
			slog.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
