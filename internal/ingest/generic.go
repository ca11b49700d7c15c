package ingest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/currency"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/table"
)

// Column-name fragments the generic mapper looks for, matched
// case-insensitively against each header in order.
var (
	genDateMarkers     = []string{"date"}
	genAmountMarkers   = []string{"amount", "value"}
	genCategoryMarkers = []string{"category", "type"}
	genMerchantMarkers = []string{"name", "merchant", "description"}
)

var genericDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/1/2",
	"2006.1.2",
	"2/1/2006",
	"2-1-2006",
	"2/1/2006 15:04:05",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// GenericNormalizer maps any table by best-effort column-name matching.
// Amounts are assumed to be in the base currency.
type GenericNormalizer struct {
	conv *currency.Converter
}

// NewGeneric creates a GenericNormalizer.
func NewGeneric(conv *currency.Converter) *GenericNormalizer {
	return &GenericNormalizer{conv: conv}
}

// Format returns FormatGeneric.
func (n *GenericNormalizer) Format() Format { return FormatGeneric }

// Normalize maps every row with a parseable date. A missing or
// unparseable amount is recorded as zero.
func (n *GenericNormalizer) Normalize(t *table.Table) (Batch, error) {
	var (
		colDate     = t.FindContaining(genDateMarkers...)
		colAmount   = t.FindContaining(genAmountMarkers...)
		colCategory = t.FindContaining(genCategoryMarkers...)
		colMerchant = t.FindContaining(genMerchantMarkers...)
	)
	if colAmount < 0 {
		if nums := numericColumns(t, colDate); len(nums) > 0 {
			colAmount = nums[0]
		}
	}

	base := n.conv.Base()
	b := Batch{Bank: model.BankUploaded, Currency: base}
	for r := range t.Rows {
		date, ok := parseSheetDate(t.Cell(r, colDate), genericDateLayouts)
		if !ok {
			b.Skipped++
			continue
		}

		amount, ok := parseAmount(t.Cell(r, colAmount))
		if !ok {
			amount = decimal.Zero
		}

		b.Records = append(b.Records, model.Transaction{
			Date:             date,
			Bank:             model.BankUploaded,
			Merchant:         orDefault(t.Cell(r, colMerchant), model.DefaultMerchant),
			Category:         orDefault(t.Cell(r, colCategory), model.DefaultCategory),
			AmountBase:       amount,
			OriginalCurrency: base,
			OriginalAmount:   amount.Abs(),
			IsIncome:         amount.IsPositive(),
		})
	}
	return b, nil
}
