package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"komoralink/internal/cli"
	"komoralink/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, "report-worker")

	logger.Info("Starting KomoraLink report worker")

	walletClient := cli.NewWalletClient(cfg)
	res := cli.InitBackend(context.Background(), cfg)
	reports := cli.NewReportService(walletClient, res)

	w := worker.NewReportWorker(reports, worker.Config{
		ServiceToken:   cfg.WalletAPIToken,
		Schedule:       cfg.ReportSchedule,
		BusinessIDs:    cfg.ReportBusinessIDs,
		TrailingMonths: cfg.ReportTrailingMonths,
	})

	ctx, done := cli.GracefulShutdown(30*time.Second, func(context.Context) {
		w.Stop()
		if err := res.Cleanup(); err != nil {
			slog.Error("Backend cleanup error", "error", err)
		}
	})

	if res.Queue == nil && cfg.ReportSchedule == "" {
		logger.Error("Nothing to do: neither AMQP_URL nor REPORT_SCHEDULE is configured")
		os.Exit(1)
	}

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start report schedule", "error", err, "schedule", cfg.ReportSchedule)
		os.Exit(1)
	}
	if cfg.ReportSchedule != "" {
		logger.Info("Report schedule registered",
			"schedule", cfg.ReportSchedule,
			"businesses", len(cfg.ReportBusinessIDs),
			"trailing_months", cfg.ReportTrailingMonths)
	}

	if res.Queue != nil {
		go func() {
			err := res.Queue.ConsumeReportRequests(ctx, w.HandleReportRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	} else {
		logger.Info("AMQP disabled, only scheduled reports will run")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Report worker stopped")
}
