package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/model"
)

func TestGeneric_DateDescAmt(t *testing.T) {
	tbl := csvTable(t, "Date,Desc,Amt\n2024-02-01,Coffee,-3.20\n2024-02-02,Refund,5\n")

	b, err := NewGeneric(testConverter(t)).Normalize(tbl)
	require.NoError(t, err)
	assert.Equal(t, model.BankUploaded, b.Bank)
	assert.Equal(t, "GBP", b.Currency)
	require.Len(t, b.Records, 2)
	assertSignInvariant(t, b.Records)

	r := b.Records[0]
	assert.Equal(t, date(2024, 2, 1), r.Date)
	// "Desc" matches none of name/merchant/description.
	assert.Equal(t, model.DefaultMerchant, r.Merchant)
	assert.Equal(t, model.DefaultCategory, r.Category)
	// "Amt" is picked as the first numeric column.
	assert.Equal(t, "-3.2", r.AmountBase.String())
	assert.Equal(t, "3.2", r.OriginalAmount.String())
	assert.Equal(t, "GBP", r.OriginalCurrency)
	assert.False(t, r.IsIncome)
	assert.Empty(t, r.Type)
	assert.Empty(t, r.Time)

	assert.True(t, b.Records[1].IsIncome)
}

func TestGeneric_NamedColumns(t *testing.T) {
	tbl := csvTable(t, "Booking Date,Description,Transaction Type,Value,Balance\n"+
		"05/03/2024,Rent,Bills,-800,200\n"+
		"06/03/2024,Salary,,1000,1200\n"+
		"garbage,Lost,Other,-1,1199\n"+
		"07/03/2024,No amount,Other,,1199\n")

	b, err := NewGeneric(testConverter(t)).Normalize(tbl)
	require.NoError(t, err)
	require.Len(t, b.Records, 3)
	assert.Equal(t, 1, b.Skipped)

	assert.Equal(t, date(2024, 3, 5), b.Records[0].Date)
	assert.Equal(t, "Rent", b.Records[0].Merchant)
	assert.Equal(t, "Bills", b.Records[0].Category)
	assert.Equal(t, "-800", b.Records[0].AmountBase.String())

	assert.Equal(t, model.DefaultCategory, b.Records[1].Category)

	assert.True(t, b.Records[2].AmountBase.IsZero(), "missing amount is kept as zero")
	assert.False(t, b.Records[2].IsIncome)
}

func TestGeneric_NoDateColumn(t *testing.T) {
	b, err := NewGeneric(testConverter(t)).Normalize(csvTable(t, "What,Amount\nx,1\n"))
	require.NoError(t, err)
	assert.Empty(t, b.Records)
	assert.Equal(t, 1, b.Skipped)
}
