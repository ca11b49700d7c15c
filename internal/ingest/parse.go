package ingest

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/table"
)

// maxExcelSerial is 9999-12-31 as a spreadsheet date serial.
const maxExcelSerial = 2958465

var amountReplacer = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "£", "", "₩", "", "원", "")

// parseAmount parses a decimal, ignoring thousands separators, spaces
// and currency symbols. An empty cell is reported as not ok.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseDate tries each layout in turn. The result is truncated to a
// calendar date.
func parseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), true
		}
	}
	return time.Time{}, false
}

// parseSheetDate is parseDate plus spreadsheet date serials, which is how
// date cells come back from a workbook read with raw values.
func parseSheetDate(s string, layouts []string) (time.Time, bool) {
	if t, ok := parseDate(s, layouts); ok {
		return t, true
	}
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 && f <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(f, false); err == nil {
			return model.Day(t), true
		}
	}
	return time.Time{}, false
}

// formatTime renders a spreadsheet time fraction as HH:MM:SS and passes
// any other text through unchanged.
func formatTime(s string) string {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f >= 1 || !strings.Contains(s, ".") {
		return s
	}
	secs := int(f*86400 + 0.5)
	return time.Date(0, 1, 1, 0, 0, secs, 0, time.UTC).Format("15:04:05")
}

// numericColumns returns, in order, the columns whose non-empty cells all
// parse as amounts. Columns with no values are not numeric, and neither
// are the exclude columns: date and time cells read as serials.
func numericColumns(t *table.Table, exclude ...int) []int {
	var cols []int
	for c := range t.Columns {
		if slices.Contains(exclude, c) {
			continue
		}
		seen := false
		numeric := true
		for r := range t.Rows {
			v := t.Cell(r, c)
			if v == "" {
				continue
			}
			seen = true
			if _, ok := parseAmount(v); !ok {
				numeric = false
				break
			}
		}
		if seen && numeric {
			cols = append(cols, c)
		}
	}
	return cols
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
