package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline(DefaultRegistry(testConverter(t)))
}

func TestPipeline_MonzoCSV(t *testing.T) {
	n, err := testPipeline(t).Normalize(Source{Filename: "exports/monzo.csv", Data: []byte(monzoExport)})
	require.NoError(t, err)
	assert.Equal(t, ContainerDelimited, n.Container)
	assert.Equal(t, FormatMonzo, n.Format)
	assert.False(t, n.Encrypted)
	assert.Equal(t, 0, n.HeaderRow)
	assert.Len(t, n.Records, 4)
	assert.Equal(t, 3, n.Skipped)
}

func TestPipeline_TravelWalletWorkbook(t *testing.T) {
	data := workbook(t, "", travelWalletRows()...)

	n, err := testPipeline(t).Normalize(Source{Filename: "TravelWallet Data Export.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, ContainerSpreadsheet, n.Container)
	assert.Equal(t, FormatTravelWallet, n.Format)
	assert.Equal(t, 3, n.HeaderRow)
	require.Len(t, n.Records, 3)
	assert.True(t, n.Records[0].IsIncome)
	assert.Equal(t, "28.57", n.Records[0].AmountBase.StringFixed(2))
}

func TestPipeline_WorkbookNumericCells(t *testing.T) {
	data := workbook(t, "",
		[]any{"날짜", "종류", "가맹점", "원화금액"},
		[]any{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "결제", "CU", 1750},
	)

	n, err := testPipeline(t).Normalize(Source{Filename: "wallet.xlsx", Data: data})
	require.NoError(t, err)
	require.Len(t, n.Records, 1)
	assert.Equal(t, date(2024, 3, 1), n.Records[0].Date)
	assert.Equal(t, "1750", n.Records[0].OriginalAmount.String())
}

func TestPipeline_WorkbookWithoutMarkers(t *testing.T) {
	data := workbook(t, "",
		[]any{"Date", "Desc", "Amt"},
		[]any{"2024-02-01", "Coffee", -3.2},
	)

	n, err := testPipeline(t).Normalize(Source{Filename: "misc.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 0, n.HeaderRow)
	assert.Equal(t, FormatGeneric, n.Format)
	require.Len(t, n.Records, 1)
	assert.Equal(t, "-3.2", n.Records[0].AmountBase.String())
}

func TestPipeline_WorkbookDateCells(t *testing.T) {
	data := workbook(t, "",
		[]any{"Date", "Desc", "Amt"},
		[]any{time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "Coffee", -3.2},
		[]any{time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), "Refund", 5},
	)

	n, err := testPipeline(t).Normalize(Source{Filename: "x.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, FormatGeneric, n.Format)
	require.Len(t, n.Records, 2)
	assertSignInvariant(t, n.Records)

	assert.Equal(t, date(2024, 2, 1), n.Records[0].Date)
	assert.Equal(t, "-3.2", n.Records[0].AmountBase.String())
	assert.False(t, n.Records[0].IsIncome)

	assert.Equal(t, date(2024, 2, 2), n.Records[1].Date)
	assert.Equal(t, "5", n.Records[1].AmountBase.String())
	assert.True(t, n.Records[1].IsIncome)
}

func TestPipeline_MonzoWorkbook(t *testing.T) {
	data := workbook(t, "",
		[]any{"Transaction ID", "Date", "Time", "Type", "Name", "Category", "Amount", "Currency"},
		[]any{"tx_01", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 0.5, "Card payment", "Pret A Manger", "Eating out", -4.25, "GBP"},
		[]any{"tx_02", time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC), "09:00:00", "Faster payment", "ACME Ltd", "Income", 2500, "GBP"},
	)

	n, err := testPipeline(t).Normalize(Source{Filename: "monzo.xlsx", Data: data})
	require.NoError(t, err)
	assert.Equal(t, FormatMonzo, n.Format)
	require.Len(t, n.Records, 2)
	assert.Zero(t, n.Skipped)
	assertSignInvariant(t, n.Records)

	r := n.Records[0]
	assert.Equal(t, date(2025, 12, 1), r.Date)
	assert.Equal(t, "12:00:00", r.Time)
	assert.Equal(t, "-4.25", r.AmountBase.String())
	assert.Equal(t, "Pret A Manger", r.Merchant)

	assert.Equal(t, "09:00:00", n.Records[1].Time)
	assert.True(t, n.Records[1].IsIncome)
}

func TestPipeline_EncryptedWorkbook(t *testing.T) {
	data := workbook(t, "s3cret", travelWalletRows()...)
	p := testPipeline(t)

	_, err := p.Normalize(Source{Filename: "wallet.xlsx", Data: data})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedEncryption)
	assert.Contains(t, err.Error(), "KOREAN_BANK_PASSWORD")

	var ierr *Error
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, "wallet.xlsx", ierr.Filename)

	_, err = p.Normalize(Source{Filename: "wallet.xlsx", Data: data, Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnsupportedEncryption)

	n, err := p.Normalize(Source{Filename: "wallet.xlsx", Data: data, Password: "s3cret"})
	require.NoError(t, err)
	assert.True(t, n.Encrypted)
	assert.Equal(t, FormatTravelWallet, n.Format)
	assert.Len(t, n.Records, 3)
}

func TestPipeline_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      Source
		wantKind error
	}{
		{"unknown extension", Source{Filename: "notes.txt", Data: []byte("Date,Amount\n2024-01-01,1\n")}, ErrUnsupportedFormat},
		{"not a workbook", Source{Filename: "bad.xlsx", Data: []byte("hello")}, ErrParseFailure},
		{"legacy xls", Source{Filename: "old.xls", Data: append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 512)...)}, ErrParseFailure},
		{"empty csv", Source{Filename: "empty.csv", Data: nil}, ErrParseFailure},
		{"header only", Source{Filename: "h.csv", Data: []byte("Date,Amount\n")}, ErrEmptyResult},
		{"no usable rows", Source{Filename: "x.csv", Data: []byte("Date,Amount\nsoon,1\n")}, ErrEmptyResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testPipeline(t).Normalize(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	data := workbook(t, "", travelWalletRows()...)
	p := testPipeline(t)

	first, err := p.Normalize(Source{Filename: "w.xlsx", Data: data})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := p.Normalize(Source{Filename: "w.xlsx", Data: data})
		require.NoError(t, err)
		assert.Equal(t, first.Detection, again.Detection)
		assert.Equal(t, len(first.Records), len(again.Records))
	}
}
