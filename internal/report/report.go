// Package report renders ledger analyses as a console text report and as
// CSV files.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tallyhq/tally/internal/analysis"
	"github.com/tallyhq/tally/internal/model"
)

const (
	ruleWidth     = 70
	maxCategories = 15
)

var symbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
	"KRW": "₩",
}

// Data bundles every analysis a report shows.
type Data struct {
	Overview   analysis.Overview
	Daily      []analysis.PeriodSummary
	Monthly    []analysis.PeriodSummary
	Quarterly  []analysis.PeriodSummary
	Yearly     []analysis.PeriodSummary
	Categories []analysis.CategoryTotal
	Merchants  []analysis.MerchantTotal
	Trend      []analysis.TrendPoint
}

// Build runs every analysis over txns.
func Build(txns []model.Transaction, topMerchants int) Data {
	return Data{
		Overview:   analysis.Summarize(txns),
		Daily:      analysis.Summaries(txns, analysis.Daily),
		Monthly:    analysis.Summaries(txns, analysis.Monthly),
		Quarterly:  analysis.Summaries(txns, analysis.Quarterly),
		Yearly:     analysis.Summaries(txns, analysis.Yearly),
		Categories: analysis.Categories(txns),
		Merchants:  analysis.TopMerchants(txns, topMerchants),
		Trend:      analysis.Trend(txns),
	}
}

// Formatter renders amounts in the base currency with thousands
// separators.
type Formatter struct {
	symbol  string
	printer *message.Printer
}

// NewFormatter creates a Formatter for base currency code.
func NewFormatter(base string) *Formatter {
	sym, ok := symbols[strings.ToUpper(base)]
	if !ok {
		sym = strings.ToUpper(base) + " "
	}
	return &Formatter{symbol: sym, printer: message.NewPrinter(language.BritishEnglish)}
}

// Money formats d as e.g. £1,234.50.
func (f *Formatter) Money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + f.symbol + f.printer.Sprintf("%.2f", d.Abs().InexactFloat64())
}

// Text renders the console report.
func (f *Formatter) Text(d Data) string {
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)
	sub := strings.Repeat("-", 40)

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("%s", rule)
	line("FINANCE REPORT - SPENDING & INCOME ANALYSIS")
	line("%s", rule)
	line("")

	o := d.Overview
	line("OVERALL SUMMARY")
	line("%s", sub)
	line("  Period:          %s to %s", o.DateFrom, o.DateTo)
	line("  Total Income:    %s", f.Money(o.TotalIncome))
	line("  Total Spending:  %s", f.Money(o.TotalSpending))
	line("  Net Cash Flow:   %s", f.Money(o.NetCashFlow))
	line("")
	line("  Income transactions:   %d", o.IncomeCount)
	line("  Spending transactions: %d", o.SpendingCount)
	line("  Average spending:      %s", f.Money(o.AverageSpending))
	line("")

	if len(d.Monthly) > 0 {
		line("MONTHLY BREAKDOWN")
		line("%s", sub)
		line("  %-12s %14s %14s %14s", "Month", "Spending", "Income", "Net")
		line("  %s", strings.Repeat("-", 56))
		for _, m := range d.Monthly {
			net := f.Money(m.Net)
			if !m.Net.IsNegative() {
				net = "+" + net
			}
			line("  %-12s %14s %14s %14s", m.Period, f.Money(m.Spending), f.Money(m.Income), net)
		}
		line("")
	}

	if len(d.Categories) > 0 {
		line("SPENDING BY CATEGORY")
		line("%s", sub)
		line("  %-20s %14s %8s %8s", "Category", "Total", "%", "Count")
		line("  %s", strings.Repeat("-", 52))
		for i, c := range d.Categories {
			if i == maxCategories {
				break
			}
			line("  %-20s %14s %7s%% %8d", truncate(c.Category, 20), f.Money(c.Total), c.Percentage.StringFixed(1), c.Count)
		}
		line("")
	}

	if len(d.Merchants) > 0 {
		line("TOP MERCHANTS BY SPENDING")
		line("%s", sub)
		line("  %-25s %14s %8s", "Merchant", "Total", "Count")
		line("  %s", strings.Repeat("-", 49))
		for _, m := range d.Merchants {
			line("  %-25s %14s %8d", truncate(m.Merchant, 25), f.Money(m.Total), m.Count)
		}
		line("")
	}

	line("%s", rule)
	return b.String()
}

// truncate cuts s to n runes so Korean merchant names are not split
// mid-character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// MissingLedger is the instruction shown by read-only commands when no
// ledger has been written yet.
func MissingLedger(path string) error {
	return fmt.Errorf("no ledger at %s: run `tally ingest` or `tally bootstrap` first", path)
}
