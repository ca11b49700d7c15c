// Package table holds the raw, untyped grid read from a bank export before
// any format-specific mapping is applied.
package table

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Table is a header row plus data rows. Every row has exactly
// len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// FromGrid builds a Table using grid[headerRow] as the header. Rows above
// the header are discarded and blank rows below it are skipped. Header
// names are NFC-normalized and trimmed so Korean column names compare
// equal regardless of how the exporting tool composed them.
func FromGrid(grid [][]string, headerRow int) *Table {
	if headerRow < 0 || headerRow >= len(grid) {
		return &Table{}
	}

	header := grid[headerRow]
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = CleanHeader(h)
	}

	t := &Table{Columns: cols}
	for _, row := range grid[headerRow+1:] {
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, pad(row, len(cols)))
	}
	return t
}

// CleanHeader trims and NFC-normalizes a column name.
func CleanHeader(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Index returns the position of the column named exactly name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether a column named exactly name exists.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// FindContaining returns the first column whose lowercased name contains
// any of subs, or -1.
func (t *Table) FindContaining(subs ...string) int {
	for i, c := range t.Columns {
		lc := strings.ToLower(c)
		for _, s := range subs {
			if strings.Contains(lc, strings.ToLower(s)) {
				return i
			}
		}
	}
	return -1
}

// Cell returns the trimmed value at row, col. A negative col yields "".
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

func pad(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
