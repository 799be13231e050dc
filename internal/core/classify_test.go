package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantDir Direction
		wantCat string
	}{
		{
			name:    "deposit is income",
			tx:      Transaction{Provider: "DEPOSIT", Amount: decimal.NewFromInt(50000)},
			wantDir: Income,
			wantCat: "Dépôt d'argent",
		},
		{
			name:    "withdrawal is expense even with positive amount",
			tx:      Transaction{Provider: "WITHDRAWAL", Amount: decimal.NewFromInt(20000)},
			wantDir: Expense,
			wantCat: "Retrait d'argent",
		},
		{
			name:    "lowercase provider is normalized",
			tx:      Transaction{Provider: " refund ", Amount: decimal.NewFromInt(-300)},
			wantDir: Income,
			wantCat: "Remboursement",
		},
		{
			name:    "type used when provider unknown",
			tx:      Transaction{Provider: "MOBILE_MONEY", Type: "TRANSFER", Amount: decimal.NewFromInt(900)},
			wantDir: Expense,
			wantCat: "MOBILE_MONEY",
		},
		{
			name:    "provider wins over type",
			tx:      Transaction{Provider: "DEPOSIT", Type: "WITHDRAWAL", Amount: decimal.NewFromInt(-10)},
			wantDir: Income,
			wantCat: "Dépôt d'argent",
		},
		{
			name:    "unknown provider with positive amount falls back to income",
			tx:      Transaction{Provider: "CASHBACK", Amount: decimal.NewFromInt(5000), Status: StatusCompleted},
			wantDir: Income,
			wantCat: "CASHBACK",
		},
		{
			name:    "adjustment with negative amount is expense",
			tx:      Transaction{Provider: "ADJUSTMENT", Amount: decimal.NewFromInt(-150)},
			wantDir: Expense,
			wantCat: "Ajustement manuel",
		},
		{
			name:    "zero amount unknown provider is expense",
			tx:      Transaction{Provider: "BONUS", Amount: decimal.Zero},
			wantDir: Expense,
			wantCat: "BONUS",
		},
		{
			name:    "empty tags",
			tx:      Transaction{Amount: decimal.NewFromInt(1)},
			wantDir: Income,
			wantCat: "Autre",
		},
		{
			name:    "category from type when provider empty",
			tx:      Transaction{Type: "transfer", Amount: decimal.NewFromInt(1)},
			wantDir: Expense,
			wantCat: "Transfert",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.tx)
			assert.Equal(t, tt.wantDir, got.Direction)
			assert.Equal(t, tt.wantCat, got.Category)
		})
	}
}

func TestClassifyPaymentCustomerName(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
		want string
	}{
		{"no metadata", nil, "Paiement reçu"},
		{"flat name", map[string]any{"customerName": "Awa"}, "Paiement de Awa"},
		{"nested name", map[string]any{"customer": map[string]any{"name": "Jean"}}, "Paiement de Jean"},
		{"first and last", map[string]any{"customer": map[string]any{"firstName": "Marie", "lastName": "Ngo"}}, "Paiement de Marie Ngo"},
		{"blank name", map[string]any{"customerName": "  "}, "Paiement reçu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{Provider: "PAYMENT", Amount: decimal.NewFromInt(10), Metadata: tt.meta}
			assert.Equal(t, tt.want, Classify(tx).Category)
		})
	}
}

func TestClassifyTotality(t *testing.T) {
	providers := []string{"", "DEPOSIT", "WITHDRAWAL", "PAYMENT", "REFUND", "ADJUSTMENT", "TRANSFER", "CASHBACK", "??"}
	amounts := []int64{-5, 0, 5}
	for _, p := range providers {
		for _, k := range providers {
			for _, a := range amounts {
				tx := Transaction{Provider: p, Type: k, Amount: decimal.NewFromInt(a)}
				if d := Classify(tx).Direction; !d.Valid() {
					t.Fatalf("provider=%q type=%q amount=%d: direction %q", p, k, a, d)
				}
			}
		}
	}
}

func TestIsSettled(t *testing.T) {
	assert.True(t, IsSettled(Transaction{Status: StatusCompleted}))
	assert.True(t, IsSettled(Transaction{Status: "completed"}))
	for _, s := range []Status{StatusPending, StatusFailed, StatusRefunded, StatusPartiallyRefunded, StatusPendingRefund, ""} {
		assert.False(t, IsSettled(Transaction{Status: s}), s)
	}
}

func TestDescribe(t *testing.T) {
	d := Describe(Transaction{
		ID:                    "tx-1",
		Provider:              "WITHDRAWAL",
		Amount:                decimal.NewFromInt(20000),
		Status:                StatusPending,
		ProviderTransactionID: "MOMO-77",
	})
	assert.Equal(t, "Retrait d'argent", d.Title)
	assert.Equal(t, "MOMO-77", d.Reference)
	assert.Equal(t, Expense, d.Direction)
	assert.True(t, d.Signed.Equal(decimal.NewFromInt(-20000)))
	assert.False(t, d.Settled)

	d = Describe(Transaction{ID: "tx-2", OrderID: "ORD-9", Provider: "DEPOSIT", Amount: decimal.NewFromInt(-5)})
	assert.Equal(t, "ORD-9", d.Reference)
	assert.True(t, d.Signed.Equal(decimal.NewFromInt(5)))

	assert.Equal(t, "tx-3", Describe(Transaction{ID: "tx-3"}).Reference)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("Income")
	assert.NoError(t, err)
	assert.Equal(t, Income, d)

	d, err = ParseDirection("expense")
	assert.NoError(t, err)
	assert.Equal(t, Expense, d)

	_, err = ParseDirection("both")
	assert.Error(t, err)
}
