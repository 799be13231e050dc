// Package charts turns aggregated wallet buckets into chart-ready series.
//
// Adapters only sort, truncate and compute percentages. Amounts stay
// decimals until they are converted to float64 here, at the render boundary.
package charts

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"komoralink/internal/core"
)

// Series selects which bucket value a single-series chart plots.
type Series string

const (
	SeriesIncome  Series = "income"
	SeriesExpense Series = "expense"
	SeriesNet     Series = "net"
)

// DefaultOtherLabel is the label of the catch-all pie segment.
const DefaultOtherLabel = "Autres"

var hundred = decimal.NewFromInt(100)

type (
	// Point is one x/y value of a bar or line chart.
	Point struct {
		Label string  `json:"label"`
		Key   string  `json:"key"`
		Value float64 `json:"value"`
	}

	// GroupedBar is one position of a two-series bar chart.
	GroupedBar struct {
		Label   string  `json:"label"`
		Key     string  `json:"key"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}

	// Part is a labelled amount to be shown as a share of a whole.
	Part struct {
		Label  string
		Amount decimal.Decimal
	}

	// Segment is one slice of a pie, ring or stacked bar.
	Segment struct {
		Label      string  `json:"label"`
		Value      float64 `json:"value"`
		Percentage float64 `json:"percentage"`
	}

	// Ring is a progress ring towards a goal.
	Ring struct {
		Value      float64 `json:"value"`
		Goal       float64 `json:"goal"`
		Percentage float64 `json:"percentage"`
	}
)

// ParseSeries accepts income, expense or net.
func ParseSeries(s string) (Series, error) {
	switch Series(s) {
	case SeriesIncome, SeriesExpense, SeriesNet:
		return Series(s), nil
	case "":
		return SeriesNet, nil
	}
	return "", fmt.Errorf("invalid series %q", s)
}

// Bar maps buckets to bar chart points for one series.
func Bar(buckets []core.PeriodBucket, series Series) []Point {
	points := make([]Point, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, Point{Label: b.Label, Key: b.Key, Value: float(value(b, series))})
	}
	return points
}

// Line maps buckets to line chart points. It has the same shape as Bar.
func Line(buckets []core.PeriodBucket, series Series) []Point {
	return Bar(buckets, series)
}

// Grouped maps buckets to a side-by-side income/expense bar chart.
func Grouped(buckets []core.PeriodBucket) []GroupedBar {
	bars := make([]GroupedBar, 0, len(buckets))
	for _, b := range buckets {
		bars = append(bars, GroupedBar{
			Label:   b.Label,
			Key:     b.Key,
			Income:  float(b.Income),
			Expense: float(b.Expense),
		})
	}
	return bars
}

// Segments computes each part's share of the total. When the total is zero
// every percentage is zero.
func Segments(parts []Part) []Segment {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p.Amount.Abs())
	}

	out := make([]Segment, 0, len(parts))
	for _, p := range parts {
		amount := p.Amount.Abs()
		seg := Segment{Label: p.Label, Value: float(amount)}
		if total.IsPositive() {
			seg.Percentage = float(amount.Div(total).Mul(hundred))
		}
		out = append(out, seg)
	}
	return out
}

// IncomeExpenseSplit returns the income and expense segments of a summary,
// income first.
func IncomeExpenseSplit(s core.Summary) []Segment {
	return Segments([]Part{
		{Label: "Revenus", Amount: s.Income},
		{Label: "Dépenses", Amount: s.Expense},
	})
}

// Progress computes a ring towards goal, clamped to [0, 100].
func Progress(value, goal decimal.Decimal) Ring {
	r := Ring{Value: float(value), Goal: float(goal)}
	if !goal.IsPositive() {
		return r
	}
	pct := value.Div(goal).Mul(hundred)
	switch {
	case pct.IsNegative():
		pct = decimal.Zero
	case pct.GreaterThan(hundred):
		pct = hundred
	}
	r.Percentage = float(pct)
	return r
}

// TopN keeps the n largest categories and folds the rest into one segment
// labelled otherLabel. n <= 0 keeps every category.
func TopN(categories []core.CategoryTotal, n int, otherLabel string) []Segment {
	if otherLabel == "" {
		otherLabel = DefaultOtherLabel
	}
	ranked := make([]core.CategoryTotal, len(categories))
	copy(ranked, categories)
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].Amount.Cmp(ranked[j].Amount); c != 0 {
			return c > 0
		}
		return ranked[i].Category < ranked[j].Category
	})

	var parts []Part
	rest := decimal.Zero
	for i, c := range ranked {
		if n > 0 && i >= n {
			rest = rest.Add(c.Amount)
			continue
		}
		parts = append(parts, Part{Label: c.Category, Amount: c.Amount})
	}
	if n > 0 && len(ranked) > n {
		parts = append(parts, Part{Label: otherLabel, Amount: rest})
	}
	return Segments(parts)
}

func value(b core.PeriodBucket, series Series) decimal.Decimal {
	switch series {
	case SeriesIncome:
		return b.Income
	case SeriesExpense:
		return b.Expense
	default:
		return b.Net()
	}
}

func float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
