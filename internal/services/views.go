package services

import (
	"time"

	"github.com/shopspring/decimal"

	"komoralink/internal/charts"
	"komoralink/internal/core"
)

// JSON shapes shared by the dashboard API and the stats CLI.
type (
	BucketView struct {
		Key       string          `json:"key"`
		Label     string          `json:"label"`
		StartDate string          `json:"startDate"`
		EndDate   string          `json:"endDate"`
		Income    decimal.Decimal `json:"income"`
		Expense   decimal.Decimal `json:"expense"`
		Net       decimal.Decimal `json:"net"`
		Count     int             `json:"count"`
	}

	TotalsView struct {
		Income           decimal.Decimal `json:"income"`
		Expense          decimal.Decimal `json:"expense"`
		Net              decimal.Decimal `json:"net"`
		Count            int             `json:"count"`
		FormattedIncome  string          `json:"formattedIncome"`
		FormattedExpense string          `json:"formattedExpense"`
		FormattedNet     string          `json:"formattedNet"`
	}

	StatsView struct {
		Unit      core.Unit           `json:"unit"`
		StartDate string              `json:"startDate"`
		EndDate   string              `json:"endDate"`
		Buckets   []BucketView        `json:"buckets"`
		Totals    TotalsView          `json:"totals"`
		Bars      []charts.Point      `json:"bars"`
		Line      []charts.Point      `json:"line"`
		Grouped   []charts.GroupedBar `json:"grouped"`
		Split     []charts.Segment    `json:"split"`
		Loaded    bool                `json:"loaded"`
		UpdatedAt time.Time           `json:"updatedAt"`
	}

	CategoriesView struct {
		Direction core.Direction   `json:"direction"`
		StartDate string           `json:"startDate"`
		EndDate   string           `json:"endDate"`
		Segments  []charts.Segment `json:"segments"`
	}

	TransactionView struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		Reference string          `json:"reference"`
		Direction core.Direction  `json:"direction"`
		Amount    decimal.Decimal `json:"amount"`
		Formatted string          `json:"formattedAmount"`
		Status    core.Status     `json:"status"`
		Settled   bool            `json:"settled"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	ReportView struct {
		ID               string          `json:"id"`
		BusinessID       string          `json:"businessId,omitempty"`
		Unit             core.Unit       `json:"unit"`
		StartDate        string          `json:"startDate"`
		EndDate          string          `json:"endDate"`
		TotalIncome      decimal.Decimal `json:"totalIncome"`
		TotalExpense     decimal.Decimal `json:"totalExpense"`
		Net              decimal.Decimal `json:"net"`
		TransactionCount int             `json:"transactionCount"`
		CreatedAt        time.Time       `json:"createdAt"`
		Buckets          []BucketView    `json:"buckets,omitempty"`
	}
)

// NewBucketViews renders buckets with inclusive end dates.
func NewBucketViews(buckets []core.PeriodBucket) []BucketView {
	out := make([]BucketView, len(buckets))
	for i, b := range buckets {
		out[i] = BucketView{
			Key:       b.Key,
			Label:     b.Label,
			StartDate: b.Start.Format(core.DateLayout),
			EndDate:   b.End.Add(-time.Nanosecond).Format(core.DateLayout),
			Income:    b.Income,
			Expense:   b.Expense,
			Net:       b.Net(),
			Count:     b.Count,
		}
	}
	return out
}

func NewTotalsView(s core.Summary) TotalsView {
	return TotalsView{
		Income:           s.Income,
		Expense:          s.Expense,
		Net:              s.Net,
		Count:            s.Count,
		FormattedIncome:  core.FormatAmount(s.Income, core.DefaultCurrency),
		FormattedExpense: core.FormatAmount(s.Expense, core.DefaultCurrency),
		FormattedNet:     core.FormatAmount(s.Net, core.DefaultCurrency),
	}
}

// NewStatsView builds every chart of the stats screen from its buckets.
// series picks the value plotted by the bar and line charts.
func NewStatsView(unit core.Unit, r core.Range, buckets []core.PeriodBucket, summary core.Summary, series charts.Series) StatsView {
	return StatsView{
		Unit:      unit,
		StartDate: r.Start.Format(core.DateLayout),
		EndDate:   r.End.Format(core.DateLayout),
		Buckets:   NewBucketViews(buckets),
		Totals:    NewTotalsView(summary),
		Bars:      charts.Bar(buckets, series),
		Line:      charts.Line(buckets, series),
		Grouped:   charts.Grouped(buckets),
		Split:     charts.IncomeExpenseSplit(summary),
	}
}

// NewCategoriesView ranks one direction's categories into pie segments,
// folding everything past top into "Autres".
func NewCategoriesView(txs []core.Transaction, dir core.Direction, r core.Range, opts core.AggregateOptions, top int) CategoriesView {
	totals := core.BreakdownByCategory(txs, dir, r, opts)
	return CategoriesView{
		Direction: dir,
		StartDate: r.Start.Format(core.DateLayout),
		EndDate:   r.End.Format(core.DateLayout),
		Segments:  charts.TopN(totals, top, charts.DefaultOtherLabel),
	}
}

func NewTransactionView(tx core.Transaction) TransactionView {
	d := core.Describe(tx)
	return TransactionView{
		ID:        tx.ID,
		Title:     d.Title,
		Reference: d.Reference,
		Direction: d.Direction,
		Amount:    d.Signed,
		Formatted: core.FormatAmount(d.Signed, core.DefaultCurrency),
		Status:    tx.Status,
		Settled:   d.Settled,
		CreatedAt: tx.CreatedAt,
	}
}

// NewReportView renders a report. Buckets are omitted when the report was
// loaded from a listing.
func NewReportView(r core.Report) ReportView {
	v := ReportView{
		ID:               r.ID,
		BusinessID:       r.BusinessID,
		Unit:             r.Unit,
		StartDate:        r.Start.Format(core.DateLayout),
		EndDate:          r.End.Format(core.DateLayout),
		TotalIncome:      r.TotalIncome,
		TotalExpense:     r.TotalExpense,
		Net:              r.Net(),
		TransactionCount: r.TransactionCount,
		CreatedAt:        r.CreatedAt,
	}
	if len(r.Buckets) > 0 {
		v.Buckets = NewBucketViews(r.Buckets)
	}
	return v
}
