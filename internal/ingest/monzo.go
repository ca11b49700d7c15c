package ingest

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/currency"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/table"
)

// Monzo export column names.
const (
	monzoColID       = "Transaction ID"
	monzoColDate     = "Date"
	monzoColTime     = "Time"
	monzoColType     = "Type"
	monzoColName     = "Name"
	monzoColCategory = "Category"
	monzoColAmount   = "Amount"
	monzoColCurrency = "Currency"
	monzoColMoneyOut = "Money Out"
	monzoColMoneyIn  = "Money In"

	monzoCurrency = "GBP"
)

var monzoDateLayouts = []string{
	"2/1/2006",
	"2006-01-02",
	"2/1/2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// MonzoNormalizer maps Monzo exports, CSV or saved as a workbook. Amounts are already in the
// account currency, so conversion only applies when the Currency column
// names something other than the base.
type MonzoNormalizer struct {
	conv *currency.Converter
}

// NewMonzo creates a MonzoNormalizer.
func NewMonzo(conv *currency.Converter) *MonzoNormalizer {
	return &MonzoNormalizer{conv: conv}
}

// Format returns FormatMonzo.
func (n *MonzoNormalizer) Format() Format { return FormatMonzo }

// Normalize maps every usable row. Rows without a date, in an unknown
// currency, or whose Money In disagrees with the amount sign are skipped.
func (n *MonzoNormalizer) Normalize(t *table.Table) (Batch, error) {
	var (
		colDate     = t.Index(monzoColDate)
		colTime     = t.Index(monzoColTime)
		colType     = t.Index(monzoColType)
		colName     = t.Index(monzoColName)
		colCategory = t.Index(monzoColCategory)
		colAmount   = t.Index(monzoColAmount)
		colCurrency = t.Index(monzoColCurrency)
		colOut      = t.Index(monzoColMoneyOut)
		colIn       = t.Index(monzoColMoneyIn)
	)

	b := Batch{Bank: model.BankMonzo, Currency: monzoCurrency}
	for r := range t.Rows {
		date, ok := parseSheetDate(t.Cell(r, colDate), monzoDateLayouts)
		if !ok {
			b.Skipped++
			continue
		}

		var amount decimal.Decimal
		switch {
		case colAmount >= 0:
			amount, _ = parseAmount(t.Cell(r, colAmount))
		case colOut >= 0 || colIn >= 0:
			out, _ := parseAmount(t.Cell(r, colOut))
			in, _ := parseAmount(t.Cell(r, colIn))
			amount = in.Sub(out.Abs())
		}

		income := amount.IsPositive()
		if colIn >= 0 {
			in, _ := parseAmount(t.Cell(r, colIn))
			income = in.IsPositive()
		}
		if !amount.IsZero() && amount.IsPositive() != income {
			b.Skipped++
			continue
		}

		code := strings.ToUpper(orDefault(t.Cell(r, colCurrency), monzoCurrency))
		base, err := n.conv.ToBase(code, amount)
		if err != nil {
			if errors.Is(err, currency.ErrUnknownCurrency) {
				b.Skipped++
				continue
			}
			return Batch{}, err
		}

		b.Records = append(b.Records, model.Transaction{
			Date:             date,
			Time:             formatTime(t.Cell(r, colTime)),
			Bank:             model.BankMonzo,
			Type:             t.Cell(r, colType),
			Merchant:         orDefault(t.Cell(r, colName), model.DefaultMerchant),
			Category:         orDefault(t.Cell(r, colCategory), model.DefaultCategory),
			AmountBase:       base,
			OriginalCurrency: code,
			OriginalAmount:   amount.Abs(),
			IsIncome:         income,
		})
	}

	if len(b.Records) > 0 {
		b.Currency = b.Records[0].OriginalCurrency
	}
	return b, nil
}
