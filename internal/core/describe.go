package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Display is the presentation of one transaction in a history list.
type Display struct {
	Title     string
	Reference string
	Direction Direction
	Signed    decimal.Decimal // positive for income, negative for expense
	Settled   bool
}

// Describe builds the history-list presentation of a transaction. Unlike the
// aggregates, history lists show every status.
func Describe(tx Transaction) Display {
	c := Classify(tx)
	signed := Magnitude(tx.Amount)
	if c.Direction == Expense {
		signed = signed.Neg()
	}
	return Display{
		Title:     c.Category,
		Reference: reference(tx),
		Direction: c.Direction,
		Signed:    signed,
		Settled:   IsSettled(tx),
	}
}

func reference(tx Transaction) string {
	for _, ref := range []string{tx.ProviderTransactionID, tx.OrderID, tx.ID} {
		if ref = strings.TrimSpace(ref); ref != "" {
			return ref
		}
	}
	return ""
}
