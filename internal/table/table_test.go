package table

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
)

func TestFromGrid(t *testing.T) {
	grid := [][]string{
		{"Statement for account 1234"},
		{},
		{" Date ", "Amount"},
		{"2024-01-02", "10"},
		{"", "  "},
		{"2024-01-03"},
	}
	tbl := FromGrid(grid, 2)
	assert.Equal(t, []string{"Date", "Amount"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"2024-01-03", ""}, tbl.Rows[1])
	assert.Equal(t, "10", tbl.Cell(0, tbl.Index("Amount")))
	assert.Equal(t, "", tbl.Cell(0, -1))
}

func TestFromGrid_HeaderOutOfRange(t *testing.T) {
	tbl := FromGrid([][]string{{"a"}}, 3)
	assert.Empty(t, tbl.Columns)
	assert.Zero(t, tbl.Len())
}

func TestCleanHeader_NFC(t *testing.T) {
	// 날짜 written as decomposed jamo.
	decomposed := "\u1102\u1161\u11af\u110d\u1161"
	assert.Equal(t, "날짜", CleanHeader(decomposed))
}

func TestFindContaining(t *testing.T) {
	tbl := &Table{Columns: []string{"Transaction Date", "원화금액(KRW)", "Notes"}}
	assert.Equal(t, 0, tbl.FindContaining("date"))
	assert.Equal(t, 1, tbl.FindContaining("원화금액", "krw"))
	assert.Equal(t, -1, tbl.FindContaining("merchant"))
	assert.True(t, tbl.Has("Notes"))
	assert.False(t, tbl.Has("notes"))
}

func TestReadDelimited(t *testing.T) {
	tbl, err := ReadDelimited([]byte("\xEF\xBB\xBFDate,Name,Amount\n2024-01-02,\"Tesco, Ltd\",-3.50\n2024-01-03,Pret\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Name", "Amount"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Tesco, Ltd", tbl.Rows[0][1])
	assert.Equal(t, "", tbl.Rows[1][2])
}

func TestReadDelimited_EUCKR(t *testing.T) {
	src := "날짜,가맹점,원화금액\n2024.01.02,편의점,\"1,200\"\n"
	enc, err := korean.EUCKR.NewEncoder().String(src)
	require.NoError(t, err)

	tbl, err := ReadDelimited([]byte(enc))
	require.NoError(t, err)
	assert.Equal(t, []string{"날짜", "가맹점", "원화금액"}, tbl.Columns)
	assert.Equal(t, "편의점", tbl.Rows[0][1])
	assert.Equal(t, "1,200", tbl.Rows[0][2])
}

func TestReadDelimited_UTF16(t *testing.T) {
	enc, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("Date,Amt\n2024-01-02,5\n")
	require.NoError(t, err)

	tbl, err := ReadDelimited([]byte(enc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Amt"}, tbl.Columns)
	assert.Equal(t, "5", tbl.Rows[0][1])
}

func TestReadDelimited_Empty(t *testing.T) {
	_, err := ReadDelimited(nil)
	assert.Error(t, err)
}

func TestReadSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"날짜", "금액"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"2024.03.01", 12000}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	assert.False(t, IsEncrypted(buf.Bytes()))
	rows, err := ReadSpreadsheet(buf.Bytes(), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024.03.01", "12000"}, rows[1])
}

func TestReadSpreadsheet_Encrypted(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "secret"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, excelize.Options{Password: "hunter2"}))
	data := buf.Bytes()

	assert.True(t, IsEncrypted(data))

	_, err := ReadSpreadsheet(data, "wrong")
	assert.Error(t, err)

	rows, err := ReadSpreadsheet(data, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "secret", rows[0][0])
}

func TestReadSpreadsheet_Garbage(t *testing.T) {
	_, err := ReadSpreadsheet([]byte("not a workbook"), "")
	assert.Error(t, err)
}
