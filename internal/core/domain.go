package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusCompleted         Status = "COMPLETED"
	StatusPending           Status = "PENDING"
	StatusFailed            Status = "FAILED"
	StatusRefunded          Status = "REFUNDED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
	StatusPendingRefund     Status = "PENDING_REFUND"
)

const (
	ProviderDeposit    = "DEPOSIT"
	ProviderWithdrawal = "WITHDRAWAL"
	ProviderPayment    = "PAYMENT"
	ProviderRefund     = "REFUND"
	ProviderAdjustment = "ADJUSTMENT"
	ProviderTransfer   = "TRANSFER"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

type (
	// Status is the lifecycle tag of a wallet transaction.
	Status string

	// Direction tells whether a transaction is money in or money out.
	Direction string

	// Transaction is a wallet transaction as returned by the wallet API.
	// It is read-only for this module.
	Transaction struct {
		ID                    string
		Amount                decimal.Decimal // signed or always positive, depending on the endpoint
		Provider              string
		Type                  string
		Status                Status
		CreatedAt             time.Time
		ProviderTransactionID string
		OrderID               string
		Metadata              map[string]any
	}

	// Classification is the result of Classify.
	Classification struct {
		Direction Direction
		Category  string
	}

	// PeriodBucket holds the income and expense sums of one calendar period.
	PeriodBucket struct {
		Key     string
		Label   string
		Start   time.Time
		End     time.Time // exclusive
		Income  decimal.Decimal
		Expense decimal.Decimal
		Count   int
	}

	// Summary totals a set of buckets.
	Summary struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
		Net     decimal.Decimal
		Count   int
	}

	// CategoryTotal is the amount aggregated under one category label.
	CategoryTotal struct {
		Category string
		Amount   decimal.Decimal
		Count    int
	}

	// Report is an archived period statement for one wallet owner. Owner
	// scopes every archive read; BusinessID is informational.
	Report struct {
		ID               string
		Owner            string
		BusinessID       string
		Unit             Unit
		Start            time.Time
		End              time.Time
		Buckets          []PeriodBucket
		TotalIncome      decimal.Decimal
		TotalExpense     decimal.Decimal
		TransactionCount int
		CreatedAt        time.Time
	}
)

var (
	ErrInvalidUnit  = errors.New("invalid period unit")
	ErrInvalidRange = errors.New("invalid date range")
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

// ParseDirection accepts "income" or "expense" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(normalize(s)) {
	case "INCOME":
		return Income, nil
	case "EXPENSE":
		return Expense, nil
	}
	return "", errors.New("invalid direction: " + s)
}

// Net returns income minus expense for the bucket.
func (b PeriodBucket) Net() decimal.Decimal {
	return b.Income.Sub(b.Expense)
}

// Net returns the report's income minus expense.
func (r Report) Net() decimal.Decimal {
	return r.TotalIncome.Sub(r.TotalExpense)
}
