package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tallyhq/tally/internal/currency"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/table"
)

const travelWalletCurrency = "KRW"

// Column-name fragments for TravelWallet exports. English fallbacks are
// matched case-insensitively.
var (
	twAmountMarkers = []string{"원화금액", "KRW"}
	twDateMarkers   = []string{"날짜", "date"}
	twTimeMarkers   = []string{"시간", "time"}
	twTypeMarkers   = []string{"종류"}
	twMerchant      = []string{"가맹점"}

	// twIncomeMarkers identify top-ups; every other type is spending.
	twIncomeMarkers = []string{"충전", "charge"}
)

var twDateLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	"2006-1-2T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// TravelWalletNormalizer maps Korean TravelWallet spreadsheet exports.
// Amounts are KRW and are converted to the base currency here, once.
type TravelWalletNormalizer struct {
	conv *currency.Converter
}

// NewTravelWallet creates a TravelWalletNormalizer.
func NewTravelWallet(conv *currency.Converter) *TravelWalletNormalizer {
	return &TravelWalletNormalizer{conv: conv}
}

// Format returns FormatTravelWallet.
func (n *TravelWalletNormalizer) Format() Format { return FormatTravelWallet }

// Normalize maps every row with a parseable date and amount. The merchant
// column doubles as the category since the source has no category field.
func (n *TravelWalletNormalizer) Normalize(t *table.Table) (Batch, error) {
	rate, err := n.conv.Rate(travelWalletCurrency)
	if err != nil {
		return Batch{}, fmt.Errorf("travelwallet: %w", err)
	}

	var (
		colDate     = t.FindContaining(twDateMarkers...)
		colTime     = t.FindContaining(twTimeMarkers...)
		colAmount   = t.FindContaining(twAmountMarkers...)
		colType     = t.FindContaining(twTypeMarkers...)
		colMerchant = t.FindContaining(twMerchant...)
	)
	if colAmount < 0 {
		if nums := numericColumns(t, colDate, colTime); len(nums) > 0 {
			colAmount = nums[len(nums)-1]
		}
	}

	b := Batch{Bank: model.BankTravelWallet, Currency: travelWalletCurrency}
	for r := range t.Rows {
		date, ok := parseTravelWalletDate(t.Cell(r, colDate))
		if !ok {
			b.Skipped++
			continue
		}
		krw, ok := parseAmount(t.Cell(r, colAmount))
		if !ok {
			b.Skipped++
			continue
		}

		kind := t.Cell(r, colType)
		income := isTopUp(kind)

		original := krw.Abs()
		base := original.Mul(rate)
		if !income {
			base = base.Neg()
		}

		merchant := t.Cell(r, colMerchant)
		b.Records = append(b.Records, model.Transaction{
			Date:             date,
			Time:             formatTime(t.Cell(r, colTime)),
			Bank:             model.BankTravelWallet,
			Type:             kind,
			Merchant:         orDefault(merchant, model.DefaultMerchant),
			Category:         orDefault(merchant, model.DefaultCategory),
			AmountBase:       base,
			OriginalCurrency: travelWalletCurrency,
			OriginalAmount:   original,
			IsIncome:         income,
		})
	}
	return b, nil
}

// parseTravelWalletDate accepts spreadsheet serials and YYYY.MM.DD text.
func parseTravelWalletDate(s string) (time.Time, bool) {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return parseSheetDate(s, nil)
	}
	return parseDate(koreanDate(s), twDateLayouts)
}

// koreanDate rewrites YYYY.MM.DD (optionally with a trailing dot) into
// dash-separated form.
func koreanDate(s string) string {
	s = strings.TrimSpace(s)
	date, rest, _ := strings.Cut(s, " ")
	date = strings.TrimRight(strings.ReplaceAll(date, ".", "-"), "-")
	if rest == "" {
		return date
	}
	return date + " " + strings.TrimSpace(rest)
}

func isTopUp(kind string) bool {
	lk := strings.ToLower(kind)
	for _, m := range twIncomeMarkers {
		if strings.Contains(lk, m) {
			return true
		}
	}
	return false
}
