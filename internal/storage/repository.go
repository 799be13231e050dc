package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"komoralink/internal/core"

	_ "modernc.org/sqlite"
)

// fixed width so text ordering is chronological
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between the server and its own goroutines
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save inserts or replaces a report and its buckets.
func (r *SQLiteRepository) Save(ctx context.Context, rep core.Report) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save report: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_buckets WHERE report_id = ?`, rep.ID); err != nil {
		return fmt.Errorf("clear report buckets: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports
			(id, owner, business_id, unit, start_at, end_at, total_income, total_expense, transaction_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.Owner, rep.BusinessID, string(rep.Unit),
		rep.Start.Format(timeLayout), rep.End.Format(timeLayout),
		rep.TotalIncome.String(), rep.TotalExpense.String(), rep.TransactionCount,
		rep.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_buckets
			(report_id, position, bucket_key, label, start_at, end_at, income, expense, transaction_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare bucket insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range rep.Buckets {
		if _, err := stmt.ExecContext(ctx, rep.ID, i, b.Key, b.Label,
			b.Start.Format(timeLayout), b.End.Format(timeLayout),
			b.Income.String(), b.Expense.String(), b.Count); err != nil {
			return fmt.Errorf("insert bucket %s: %w", b.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}

	slog.InfoContext(ctx, "Report saved to SQLite",
		"report_id", rep.ID,
		"business_id", rep.BusinessID,
		"unit", rep.Unit,
		"buckets", len(rep.Buckets))
	return nil
}

// Get loads a report with its buckets.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Report, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner, business_id, unit, start_at, end_at, total_income, total_expense, transaction_count, created_at
		FROM reports WHERE id = ?`, id)
	rep, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Report{}, ErrReportNotFound
	}
	if err != nil {
		return core.Report{}, fmt.Errorf("get report %s: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT bucket_key, label, start_at, end_at, income, expense, transaction_count
		FROM report_buckets WHERE report_id = ? ORDER BY position`, id)
	if err != nil {
		return core.Report{}, fmt.Errorf("get report buckets: %w", err)
	}
	defer rows.Close()

	rep.Buckets = []core.PeriodBucket{}
	for rows.Next() {
		var (
			b                        core.PeriodBucket
			start, end, inc, expense string
		)
		if err := rows.Scan(&b.Key, &b.Label, &start, &end, &inc, &expense, &b.Count); err != nil {
			return core.Report{}, fmt.Errorf("scan report bucket: %w", err)
		}
		if b.Start, err = time.Parse(timeLayout, start); err != nil {
			return core.Report{}, fmt.Errorf("parse bucket start: %w", err)
		}
		if b.End, err = time.Parse(timeLayout, end); err != nil {
			return core.Report{}, fmt.Errorf("parse bucket end: %w", err)
		}
		if b.Income, err = decimal.NewFromString(inc); err != nil {
			return core.Report{}, fmt.Errorf("parse bucket income: %w", err)
		}
		if b.Expense, err = decimal.NewFromString(expense); err != nil {
			return core.Report{}, fmt.Errorf("parse bucket expense: %w", err)
		}
		rep.Buckets = append(rep.Buckets, b)
	}
	if err := rows.Err(); err != nil {
		return core.Report{}, fmt.Errorf("iterate report buckets: %w", err)
	}
	return rep, nil
}

// List returns report headers, newest first.
func (r *SQLiteRepository) List(ctx context.Context, f ListFilter) ([]core.Report, error) {
	out := make([]core.Report, 0)
	if f.Owner == "" {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner, business_id, unit, start_at, end_at, total_income, total_expense, transaction_count, created_at
		FROM reports WHERE owner = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, f.Owner, f.limit())
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (core.Report, error) {
	var (
		rep                                   core.Report
		unit, start, end, inc, exp, createdAt string
	)
	if err := s.Scan(&rep.ID, &rep.Owner, &rep.BusinessID, &unit, &start, &end, &inc, &exp, &rep.TransactionCount, &createdAt); err != nil {
		return core.Report{}, err
	}
	rep.Unit = core.Unit(unit)

	var err error
	if rep.Start, err = time.Parse(timeLayout, start); err != nil {
		return core.Report{}, fmt.Errorf("parse start: %w", err)
	}
	if rep.End, err = time.Parse(timeLayout, end); err != nil {
		return core.Report{}, fmt.Errorf("parse end: %w", err)
	}
	if rep.TotalIncome, err = decimal.NewFromString(inc); err != nil {
		return core.Report{}, fmt.Errorf("parse total income: %w", err)
	}
	if rep.TotalExpense, err = decimal.NewFromString(exp); err != nil {
		return core.Report{}, fmt.Errorf("parse total expense: %w", err)
	}
	if rep.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Report{}, fmt.Errorf("parse created at: %w", err)
	}
	return rep, nil
}
