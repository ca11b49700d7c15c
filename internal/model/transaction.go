package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifiers written to the bank column.
const (
	BankMonzo        = "Monzo"
	BankTravelWallet = "TravelWallet (Korea)"
	BankUploaded     = "Uploaded"
	BankUnknown      = "Unknown"
)

// Defaults applied when a source has no merchant or category.
const (
	DefaultMerchant = "Unknown"
	DefaultCategory = "Other"
)

// Transaction is one canonical ledger row. Every source format is
// normalized into this shape before it reaches the ledger.
type Transaction struct {
	Date             time.Time // calendar date, midnight UTC
	Time             string    // empty when the source has no time
	Bank             string
	Type             string // source-provided transaction type
	Merchant         string
	Category         string
	AmountBase       decimal.Decimal // base currency; negative = spending
	OriginalCurrency string
	OriginalAmount   decimal.Decimal // magnitude in OriginalCurrency, never negative
	IsIncome         bool
}

// IsSpending reports whether the transaction decreases the balance.
func (t Transaction) IsSpending() bool {
	return !t.IsIncome
}

// Day truncates t to a calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
