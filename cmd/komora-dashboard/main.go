package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"komoralink/internal/cli"
	apphttp "komoralink/internal/http"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, "dashboard")

	walletClient := cli.NewWalletClient(cfg)
	res := cli.InitBackend(context.Background(), cfg)
	reports := cli.NewReportService(walletClient, res)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Wallet:    walletClient,
		Reports:   reports,
		CacheSize: cfg.ScreenCacheSize,
		CacheTTL:  cfg.ScreenCacheTTL,
		Logger:    logger.WithComponent("http"),
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			slog.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting KomoraLink dashboard",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"queue", reports.QueueEnabled(),
		"sheets_export", cfg.SheetsExportEnabled())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
