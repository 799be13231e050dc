package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"komoralink/internal/amqp"
	"komoralink/internal/core"
	klog "komoralink/internal/log"
	"komoralink/internal/sheets"
	"komoralink/internal/storage"
	"komoralink/internal/wallet"
)

// ErrQueueUnavailable is returned by Enqueue when no report queue is
// configured.
var ErrQueueUnavailable = errors.New("report queue not configured")

type (
	// TransactionSource loads every transaction of a filter.
	TransactionSource interface {
		FetchAll(ctx context.Context, s wallet.Session, f wallet.Filter) ([]core.Transaction, error)
	}

	// ReportPublisher queues report requests for the worker.
	ReportPublisher interface {
		PublishReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error
	}

	// ReportRequest describes the statement to build. An empty ID gets a
	// fresh one.
	ReportRequest struct {
		ID    string
		Unit  core.Unit
		Range core.Range
	}
)

// Validate checks the unit and that the range fits the bucket limit.
func (r ReportRequest) Validate() error {
	_, err := core.Buckets(r.Unit, r.Range)
	return err
}

// readinessOwner is never produced by wallet.Session.Owner.
const readinessOwner = "readiness"

// ReportService builds period statements from the wallet, archives them and
// optionally mirrors them to a spreadsheet.
type ReportService struct {
	source    TransactionSource
	store     storage.ReportStore
	exporter  sheets.ReportExporter
	publisher ReportPublisher
	opts      core.AggregateOptions
	logger    *klog.StructuredLogger
	now       func() time.Time
}

// NewReportService wires the service. exporter and publisher may be nil.
func NewReportService(source TransactionSource, store storage.ReportStore, exporter sheets.ReportExporter, publisher ReportPublisher) *ReportService {
	return &ReportService{
		source:    source,
		store:     store,
		exporter:  exporter,
		publisher: publisher,
		logger:    klog.NewStructuredLogger(klog.New(klog.Config{Component: klog.ComponentReport, Handler: slog.Default().Handler()})),
		now:       time.Now,
	}
}

// QueueEnabled reports whether Enqueue can hand requests to a worker.
func (s *ReportService) QueueEnabled() bool {
	return s.publisher != nil
}

// Generate fetches the range, aggregates it, and saves the report. An export
// failure is logged and does not fail the call since the report is already
// archived.
func (s *ReportService) Generate(ctx context.Context, session wallet.Session, req ReportRequest) (core.Report, error) {
	if err := session.Validate(); err != nil {
		return core.Report{}, err
	}
	if err := req.Validate(); err != nil {
		return core.Report{}, err
	}

	txs, err := s.source.FetchAll(ctx, session, wallet.FilterForRange(req.Range))
	if err != nil {
		return core.Report{}, fmt.Errorf("fetch transactions: %w", err)
	}

	buckets, err := core.Aggregate(txs, req.Unit, req.Range, s.opts)
	if err != nil {
		return core.Report{}, fmt.Errorf("aggregate transactions: %w", err)
	}
	summary := core.Totals(buckets)

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	report := core.Report{
		ID:               id,
		Owner:            session.Owner(),
		BusinessID:       session.BusinessID,
		Unit:             req.Unit,
		Start:            req.Range.Start,
		End:              req.Range.End,
		Buckets:          buckets,
		TotalIncome:      summary.Income,
		TotalExpense:     summary.Expense,
		TransactionCount: summary.Count,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.store.Save(ctx, report); err != nil {
		return core.Report{}, fmt.Errorf("save report: %w", err)
	}
	s.logger.LogReportGenerated(ctx, report.ID, report.BusinessID, string(report.Unit),
		report.Start.Format(core.DateLayout), report.End.Format(core.DateLayout), len(buckets))

	if s.exporter != nil {
		if _, err := s.exporter.Export(ctx, report); err != nil {
			fields := klog.NewFields().WithPeriod(report.BusinessID, string(report.Unit),
				report.Start.Format(core.DateLayout), report.End.Format(core.DateLayout))
			fields[klog.FieldReportID] = report.ID
			s.logger.LogError(ctx, "Failed to export report", err, klog.ComponentSheets, klog.OpExport, fields)
		}
	}
	return report, nil
}

// Enqueue publishes a report request and returns the id the report will be
// saved under.
func (s *ReportService) Enqueue(ctx context.Context, session wallet.Session, req ReportRequest) (string, error) {
	if s.publisher == nil {
		return "", ErrQueueUnavailable
	}
	if err := session.Validate(); err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	msg := amqp.NewReportRequestMessage(session.BusinessID, session.Token, req.Unit, req.Range)
	if req.ID != "" {
		msg.ReportID = req.ID
	}
	if err := s.publisher.PublishReportRequest(ctx, msg); err != nil {
		return "", fmt.Errorf("publish report request: %w", err)
	}
	slog.InfoContext(ctx, "Report request queued", "report_id", msg.ReportID, "business_id", msg.BusinessID)
	return msg.ReportID, nil
}

// Get returns an archived report of the session owner with its buckets.
// Reports of other owners are reported as storage.ErrReportNotFound.
func (s *ReportService) Get(ctx context.Context, session wallet.Session, id string) (core.Report, error) {
	if err := session.Validate(); err != nil {
		return core.Report{}, err
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Report{}, err
	}
	if r.Owner != session.Owner() {
		return core.Report{}, storage.ErrReportNotFound
	}
	return r, nil
}

// List returns the session owner's archived reports, newest first, without
// buckets.
func (s *ReportService) List(ctx context.Context, session wallet.Session, limit int) ([]core.Report, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, storage.ListFilter{Owner: session.Owner(), Limit: limit})
}

// Ready checks that the report store answers queries.
func (s *ReportService) Ready(ctx context.Context) error {
	_, err := s.store.List(ctx, storage.ListFilter{Owner: readinessOwner, Limit: 1})
	return err
}
