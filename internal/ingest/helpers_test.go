package ingest

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tallyhq/tally/internal/currency"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/table"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testConverter(t *testing.T) *currency.Converter {
	t.Helper()
	conv, err := currency.NewConverter("GBP", map[string]float64{"KRW": 1750, "EUR": 1.25})
	require.NoError(t, err)
	return conv
}

func csvTable(t *testing.T, s string) *table.Table {
	t.Helper()
	tbl, err := table.ReadDelimited([]byte(s))
	require.NoError(t, err)
	return tbl
}

// workbook builds an xlsx file from rows. A non-empty password encrypts it.
func workbook(t *testing.T, password string, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, excelize.Options{Password: password}))
	return buf.Bytes()
}

// travelWalletRows mimics a TravelWallet export: a title block above the
// header row.
func travelWalletRows() [][]any {
	return [][]any{
		{"트래블월렛 거래내역"},
		{"조회기간", "2024.03.01 ~ 2024.03.31"},
		{},
		{"날짜", "시간", "종류(Payment type)", "가맹점 이름(Name of the merchant)", "원화금액(KRW)"},
		{"2024.03.01", "09:15", "충전(charge)", "", "50,000"},
		{"2024.03.02", "12:30", "결제(payment)", "GS25", "3,500"},
		{"2024.03.03.", "18:00", "결제(payment)", "스타벅스", "17500"},
		{"합계", "", "", "", ""},
	}
}

func assertSignInvariant(t *testing.T, txns []model.Transaction) {
	t.Helper()
	for i, txn := range txns {
		if txn.AmountBase.IsZero() {
			continue
		}
		require.Equal(t, txn.AmountBase.IsPositive(), txn.IsIncome, "row %d: %+v", i, txn)
		require.False(t, txn.OriginalAmount.IsNegative(), "row %d", i)
	}
}
