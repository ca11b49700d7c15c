// Package analysis computes read-only aggregations over the ledger. All
// functions take a copy of the records and never modify them; amounts are
// always the base-currency column.
package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/model"
)

const dateFormat = "2006-01-02"

// Overview is the income versus spending summary of a ledger.
type Overview struct {
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalSpending   decimal.Decimal `json:"total_spending"`
	NetCashFlow     decimal.Decimal `json:"net_cash_flow"`
	IncomeCount     int             `json:"income_count"`
	SpendingCount   int             `json:"spending_count"`
	AverageIncome   decimal.Decimal `json:"average_income"`
	AverageSpending decimal.Decimal `json:"average_spending"`
	Transactions    int             `json:"transaction_count"`
	DateFrom        string          `json:"date_from"`
	DateTo          string          `json:"date_to"`
}

// Summarize totals income and spending. Spending is reported as a
// positive magnitude.
func Summarize(txns []model.Transaction) Overview {
	var o Overview
	income, spending := decimal.Zero, decimal.Zero

	for i, txn := range txns {
		if txn.IsIncome {
			income = income.Add(txn.AmountBase)
			o.IncomeCount++
		} else {
			spending = spending.Add(txn.AmountBase)
			o.SpendingCount++
		}

		d := txn.Date.Format(dateFormat)
		if i == 0 || d < o.DateFrom {
			o.DateFrom = d
		}
		if d > o.DateTo {
			o.DateTo = d
		}
	}

	o.Transactions = len(txns)
	o.TotalIncome = round2(income)
	o.TotalSpending = round2(spending.Abs())
	o.NetCashFlow = round2(income.Add(spending))
	o.AverageIncome = round2(income.Div(decimal.NewFromInt(int64(max(1, o.IncomeCount)))))
	o.AverageSpending = round2(spending.Abs().Div(decimal.NewFromInt(int64(max(1, o.SpendingCount)))))
	return o
}

func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
