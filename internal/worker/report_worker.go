package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron"

	"komoralink/internal/amqp"
	"komoralink/internal/core"
	"komoralink/internal/services"
	"komoralink/internal/wallet"
)

// Generator builds and archives one report.
type Generator interface {
	Generate(ctx context.Context, s wallet.Session, req services.ReportRequest) (core.Report, error)
}

// Config drives the scheduled reports. Schedule uses the six-field cron
// syntax (with seconds) or a descriptor such as @daily.
type Config struct {
	ServiceToken   string
	Schedule       string
	BusinessIDs    []string
	TrailingMonths int
}

// ReportWorker turns queued requests and schedule ticks into reports.
type ReportWorker struct {
	gen Generator
	cfg Config
	now func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewReportWorker(gen Generator, cfg Config) *ReportWorker {
	if cfg.TrailingMonths < 1 {
		cfg.TrailingMonths = 12
	}
	return &ReportWorker{gen: gen, cfg: cfg, now: time.Now}
}

// HandleReportRequest processes one queue message. The message token is
// used when present, the service token otherwise. Requests that can never
// succeed are logged and acknowledged; other failures are returned so the
// message is requeued.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	token := msg.Token
	if token == "" {
		token = w.cfg.ServiceToken
	}
	session := wallet.Session{Token: token, BusinessID: msg.BusinessID}

	r, err := msg.Range()
	if err != nil {
		slog.ErrorContext(ctx, "Discarding report request with invalid range",
			"report_id", msg.ReportID, "error", err)
		return nil
	}

	report, err := w.gen.Generate(ctx, session, services.ReportRequest{ID: msg.ReportID, Unit: msg.Unit, Range: r})
	if err != nil {
		if permanent(err) {
			slog.ErrorContext(ctx, "Discarding report request that cannot succeed",
				"report_id", msg.ReportID, "business_id", msg.BusinessID, "error", err)
			return nil
		}
		return fmt.Errorf("generate report %s: %w", msg.ReportID, err)
	}

	slog.InfoContext(ctx, "Report request completed",
		"report_id", report.ID, "buckets", len(report.Buckets), "transactions", report.TransactionCount)
	return nil
}

// RunScheduled generates the trailing monthly report of every configured
// business. A failing business does not stop the others.
func (w *ReportWorker) RunScheduled(ctx context.Context) error {
	r, err := core.TrailingMonths(w.now(), w.cfg.TrailingMonths)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range w.cfg.BusinessIDs {
		session := wallet.Session{Token: w.cfg.ServiceToken, BusinessID: id}
		report, err := w.gen.Generate(ctx, session, services.ReportRequest{Unit: core.UnitMonth, Range: r})
		if err != nil {
			slog.ErrorContext(ctx, "Scheduled report failed", "business_id", id, "error", err)
			errs = append(errs, fmt.Errorf("business %s: %w", id, err))
			continue
		}
		slog.InfoContext(ctx, "Scheduled report generated", "business_id", id, "report_id", report.ID)
	}
	return errors.Join(errs...)
}

// Start registers the schedule and returns immediately. The schedule stops
// when ctx is done. An empty schedule is a no-op.
func (w *ReportWorker) Start(ctx context.Context) error {
	if w.cfg.Schedule == "" {
		slog.InfoContext(ctx, "No report schedule configured")
		return nil
	}

	c := cron.New()
	err := c.AddFunc(w.cfg.Schedule, func() {
		if err := w.RunScheduled(ctx); err != nil {
			slog.WarnContext(ctx, "Scheduled report run finished with errors", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register report schedule %q: %w", w.cfg.Schedule, err)
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()
	c.Start()

	slog.InfoContext(ctx, "Report schedule started",
		"schedule", w.cfg.Schedule, "businesses", len(w.cfg.BusinessIDs), "trailing_months", w.cfg.TrailingMonths)

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts the schedule. Runs in progress are not interrupted.
func (w *ReportWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		w.cron.Stop()
		w.cron = nil
	}
}

func permanent(err error) bool {
	if errors.Is(err, wallet.ErrMissingToken) || errors.Is(err, core.ErrInvalidUnit) || errors.Is(err, core.ErrInvalidRange) {
		return true
	}
	var apiErr *wallet.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return true
		}
	}
	return false
}
