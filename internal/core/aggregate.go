package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// SettledOnly keeps only COMPLETED transactions. It is the zero value so
	// financial totals never include non-final transactions by accident.
	SettledOnly StatusFilter = iota
	// AllStatuses keeps every transaction regardless of status.
	AllStatuses
)

type (
	// StatusFilter selects which transactions an aggregation includes.
	StatusFilter int

	// AggregateOptions tunes Aggregate and BreakdownByCategory.
	AggregateOptions struct {
		Statuses StatusFilter
	}
)

func (o AggregateOptions) includes(tx Transaction) bool {
	if o.Statuses == AllStatuses {
		return true
	}
	return IsSettled(tx)
}

// Aggregate groups transactions into calendar buckets and sums income and
// expense magnitudes per bucket.
//
// Every bucket of the range is present, including empty ones, in
// chronological order. Transactions outside the range are dropped. The
// result is a pure function of the arguments.
func Aggregate(txs []Transaction, unit Unit, r Range, opts AggregateOptions) ([]PeriodBucket, error) {
	buckets, err := Buckets(unit, r)
	if err != nil {
		return nil, err
	}
	for i := range buckets {
		buckets[i].Income = decimal.Zero
		buckets[i].Expense = decimal.Zero
	}

	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		index[b.Key] = i
	}

	loc := r.Start.Location()
	for _, tx := range txs {
		if !opts.includes(tx) || !r.Contains(tx.CreatedAt) {
			continue
		}
		key := BucketKey(bucketStart(tx.CreatedAt.In(loc), unit), unit)
		i, ok := index[key]
		if !ok {
			continue
		}
		amount := Magnitude(tx.Amount)
		if Classify(tx).Direction == Income {
			buckets[i].Income = buckets[i].Income.Add(amount)
		} else {
			buckets[i].Expense = buckets[i].Expense.Add(amount)
		}
		buckets[i].Count++
	}
	return buckets, nil
}

// Totals sums a bucket series.
func Totals(buckets []PeriodBucket) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, b := range buckets {
		s.Income = s.Income.Add(b.Income)
		s.Expense = s.Expense.Add(b.Expense)
		s.Count += b.Count
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// BreakdownByCategory sums the magnitudes of the transactions of one
// direction per category label, largest first.
func BreakdownByCategory(txs []Transaction, dir Direction, r Range, opts AggregateOptions) []CategoryTotal {
	totals := map[string]*CategoryTotal{}
	for _, tx := range txs {
		if !opts.includes(tx) || !r.Contains(tx.CreatedAt) {
			continue
		}
		c := Classify(tx)
		if c.Direction != dir {
			continue
		}
		ct, ok := totals[c.Category]
		if !ok {
			ct = &CategoryTotal{Category: c.Category, Amount: decimal.Zero}
			totals[c.Category] = ct
		}
		ct.Amount = ct.Amount.Add(Magnitude(tx.Amount))
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
