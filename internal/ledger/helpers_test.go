package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func spend(day int, merchant, amount string) model.Transaction {
	return model.Transaction{
		Date:             date(2024, 1, day),
		Time:             "12:00:00",
		Bank:             model.BankMonzo,
		Type:             "Card payment",
		Merchant:         merchant,
		Category:         "Groceries",
		AmountBase:       dec(amount).Neg(),
		OriginalCurrency: "GBP",
		OriginalAmount:   dec(amount),
	}
}

func rows(txns []model.Transaction) [][]string {
	out := make([][]string, len(txns))
	for i, txn := range txns {
		out[i] = MarshalTransaction(txn)
	}
	return out
}
