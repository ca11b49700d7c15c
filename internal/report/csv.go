package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tallyhq/tally/internal/analysis"
)

// WriteCSV writes the monthly, category, merchant and daily tables to
// <dir>/<prefix>_<table>.csv and returns the paths written.
func WriteCSV(dir, prefix string, d Data) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}

	tables := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"monthly", []string{"month", "spending", "income", "net"}, periodRows(d.Monthly)},
		{"categories", []string{"category", "total", "count", "percentage"}, categoryRows(d)},
		{"merchants", []string{"merchant", "total", "count"}, merchantRows(d)},
		{"daily", []string{"date", "spending", "income", "net"}, periodRows(d.Daily)},
	}

	var paths []string
	for _, t := range tables {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, t.name))
		if err := writeTable(path, t.header, t.rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func periodRows(ps []analysis.PeriodSummary) [][]string {
	rows := make([][]string, len(ps))
	for i, p := range ps {
		rows[i] = []string{p.Period, p.Spending.StringFixed(2), p.Income.StringFixed(2), p.Net.StringFixed(2)}
	}
	return rows
}

func categoryRows(d Data) [][]string {
	rows := make([][]string, len(d.Categories))
	for i, c := range d.Categories {
		rows[i] = []string{c.Category, c.Total.StringFixed(2), strconv.Itoa(c.Count), c.Percentage.StringFixed(1)}
	}
	return rows
}

func merchantRows(d Data) [][]string {
	rows := make([][]string, len(d.Merchants))
	for i, m := range d.Merchants {
		rows[i] = []string{m.Merchant, m.Total.StringFixed(2), strconv.Itoa(m.Count)}
	}
	return rows
}
