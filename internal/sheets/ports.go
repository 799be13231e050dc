package sheets

import (
	"context"

	"komoralink/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter publishes a generated report outside the archive.
	ReportExporter interface {
		// Export appends the report and returns a reference to where it landed.
		Export(ctx context.Context, r core.Report) (ref string, err error)
	}
)

// Header is the column layout of exported report rows.
var Header = []string{"report_id", "business_id", "unit", "key", "label", "income", "expense", "net"}

// Rows flattens a report into one row per bucket, in Header order.
func Rows(r core.Report) [][]any {
	rows := make([][]any, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		rows = append(rows, []any{
			r.ID,
			r.BusinessID,
			string(r.Unit),
			b.Key,
			b.Label,
			b.Income.InexactFloat64(),
			b.Expense.InexactFloat64(),
			b.Net().InexactFloat64(),
		})
	}
	return rows
}
