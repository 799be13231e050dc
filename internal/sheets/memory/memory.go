package memory

import (
	"context"
	"fmt"
	"sync"

	"komoralink/internal/core"
	"komoralink/internal/sheets"
)

// Exporter keeps exported rows in memory. It backs the dashboard when no
// spreadsheet is configured and doubles as a test double.
type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.ReportExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export stores the report rows and returns a synthetic range reference.
func (e *Exporter) Export(_ context.Context, r core.Report) (string, error) {
	rows := sheets.Rows(r)
	e.mu.Lock()
	defer e.mu.Unlock()
	first := len(e.rows) + 1
	e.rows = append(e.rows, rows...)
	if len(rows) == 0 {
		return "", nil
	}
	return fmt.Sprintf("mem:%d-%d", first, len(e.rows)), nil
}

// Rows returns a copy of every exported row in export order.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.rows))
	copy(out, e.rows)
	return out
}
