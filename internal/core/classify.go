package core

import (
	"fmt"
	"strings"
)

var (
	incomeKinds = map[string]struct{}{
		ProviderDeposit: {},
		ProviderPayment: {},
		ProviderRefund:  {},
	}
	expenseKinds = map[string]struct{}{
		ProviderWithdrawal: {},
		ProviderTransfer:   {},
	}
	categoryLabels = map[string]string{
		ProviderDeposit:    "Dépôt d'argent",
		ProviderWithdrawal: "Retrait d'argent",
		ProviderRefund:     "Remboursement",
		ProviderAdjustment: "Ajustement manuel",
		ProviderTransfer:   "Transfert",
	}
)

const (
	paymentReceivedLabel = "Paiement reçu"
	unknownCategoryLabel = "Autre"
)

// IsSettled reports whether tx counts towards financial totals.
func IsSettled(tx Transaction) bool {
	return Status(normalize(string(tx.Status))) == StatusCompleted
}

// Classify decides the direction and category label of a transaction.
//
// Provider is consulted before Type at every step. When neither tag is known
// the sign of the amount decides, with zero and negative amounts counted as
// expense, so the result is never unclassified.
func Classify(tx Transaction) Classification {
	return Classification{
		Direction: direction(tx),
		Category:  category(tx),
	}
}

func direction(tx Transaction) Direction {
	provider, kind := normalize(tx.Provider), normalize(tx.Type)
	for _, tag := range [...]string{provider, kind} {
		if _, ok := incomeKinds[tag]; ok {
			return Income
		}
	}
	for _, tag := range [...]string{provider, kind} {
		if _, ok := expenseKinds[tag]; ok {
			return Expense
		}
	}
	if tx.Amount.IsPositive() {
		return Income
	}
	return Expense
}

func category(tx Transaction) string {
	raw := strings.TrimSpace(tx.Provider)
	if raw == "" {
		raw = strings.TrimSpace(tx.Type)
	}
	if raw == "" {
		return unknownCategoryLabel
	}
	tag := normalize(raw)
	if tag == ProviderPayment {
		if name := customerName(tx.Metadata); name != "" {
			return "Paiement de " + name
		}
		return paymentReceivedLabel
	}
	if label, ok := categoryLabels[tag]; ok {
		return label
	}
	return raw
}

// customerName looks for a display name in the metadata shapes the wallet API
// has been seen to return.
func customerName(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}
	if s := stringValue(meta["customerName"]); s != "" {
		return s
	}
	customer, ok := meta["customer"].(map[string]any)
	if !ok {
		return ""
	}
	if s := stringValue(customer["name"]); s != "" {
		return s
	}
	first, last := stringValue(customer["firstName"]), stringValue(customer["lastName"])
	return strings.TrimSpace(first + " " + last)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
