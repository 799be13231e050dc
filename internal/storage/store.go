// Package storage archives generated reports.
package storage

import (
	"context"
	"errors"

	"komoralink/internal/core"
)

// ErrReportNotFound is returned when no report has the requested id.
var ErrReportNotFound = errors.New("report not found")

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// ListFilter narrows List to one owner. An empty Owner matches nothing.
type ListFilter struct {
	Owner string
	Limit int
}

// ReportStore persists reports. List returns reports without their buckets,
// newest first.
type ReportStore interface {
	Save(ctx context.Context, r core.Report) error
	Get(ctx context.Context, id string) (core.Report, error)
	List(ctx context.Context, f ListFilter) ([]core.Report, error)
	Close() error
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 500 {
		return DefaultListLimit
	}
	return f.Limit
}
