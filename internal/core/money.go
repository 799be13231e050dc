// Package core provides the wallet transaction model, classification and
// period aggregation.
//
// This file contains amount helpers built on shopspring/decimal. Sums are
// always carried as decimals; conversion to float64 only happens at the chart
// boundary.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency code used when none is configured.
const DefaultCurrency = "FCFA"

// ParseAmount parses a decimal amount, accepting a comma as decimal separator
// and spaces as thousands separators.
//
// Examples:
//
//	ParseAmount("50000")     -> 50000
//	ParseAmount("-20 000")   -> -20000
//	ParseAmount("12,5")      -> 12.5
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// Magnitude returns the absolute value of an amount.
func Magnitude(d decimal.Decimal) decimal.Decimal {
	return d.Abs()
}

// FormatAmount renders an amount for display, grouping thousands with a space
// and keeping at most two decimals (none for whole amounts).
func FormatAmount(d decimal.Decimal, currency string) string {
	neg := d.IsNegative()
	d = d.Abs().Round(2)

	whole := d.Truncate(0)
	frac := d.Sub(whole)

	digits := whole.String()
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if !frac.IsZero() {
		b.WriteByte(',')
		fmt.Fprintf(&b, "%02d", frac.Shift(2).IntPart())
	}
	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(currency)
	}
	return b.String()
}
