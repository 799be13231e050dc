package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"komoralink/internal/amqp"
	"komoralink/internal/sheets"
	gsheet "komoralink/internal/sheets/google"
	"komoralink/internal/sheets/memory"
	"komoralink/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.ReportStore
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite report store", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = storage.NewMemoryStore()
		f.logger.Info("Initialized memory report store")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	exporter, err := f.createExporter(ctx, config)
	if err != nil {
		store.Close()
		return nil, err
	}

	// Initialize AMQP client (optional)
	var queue *amqp.Client
	if config.AMQPURL != "" {
		queue, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, reports will be generated inline", "error", err)
			queue = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	return &BackendResult{
		Store:    store,
		Exporter: exporter,
		Queue:    queue,
		Cleanup:  cleanup(store, queue),
	}, nil
}

// createExporter returns the Google Sheets exporter when a spreadsheet is
// configured, an in-memory exporter for the memory backend, and nil
// otherwise.
func (f *DefaultFactory) createExporter(ctx context.Context, config Config) (sheets.ReportExporter, error) {
	if config.GoogleSpreadsheetID != "" {
		exp, err := gsheet.NewExporter(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleCredentialsJSON,
			CredentialsFile: config.GoogleCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
		}
		return exp, nil
	}
	if config.Type == MemoryBackend {
		return memory.New(), nil
	}
	return nil, nil
}

func cleanup(store storage.ReportStore, queue *amqp.Client) CleanupFunc {
	return func() error {
		var errs []error
		if queue != nil {
			errs = append(errs, queue.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
}
