package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/model"
)

// Period is a bucketing granularity.
type Period string

// Supported periods.
const (
	Daily     Period = "daily"
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Yearly    Period = "yearly"
)

// ErrInvalidPeriod is returned by ParsePeriod for unknown names.
var ErrInvalidPeriod = errors.New("invalid period, use daily, monthly, quarterly or yearly")

// ParsePeriod maps a period name to a Period.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Daily, Monthly, Quarterly, Yearly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Key labels the bucket containing t: 2024-03-01, 2024-03, 2024Q1 or 2024.
func (p Period) Key(t time.Time) string {
	switch p {
	case Daily:
		return t.Format(dateFormat)
	case Quarterly:
		return fmt.Sprintf("%dQ%d", t.Year(), (int(t.Month())-1)/3+1)
	case Yearly:
		return fmt.Sprintf("%d", t.Year())
	default:
		return t.Format("2006-01")
	}
}

// PeriodSummary is spending, income and net for one bucket.
type PeriodSummary struct {
	Period   string          `json:"period"`
	Spending decimal.Decimal `json:"spending"`
	Income   decimal.Decimal `json:"income"`
	Net      decimal.Decimal `json:"net"`
	Count    int             `json:"count"`
}

// Summaries buckets txns by p, oldest bucket first.
func Summaries(txns []model.Transaction, p Period) []PeriodSummary {
	type acc struct {
		spending, income decimal.Decimal
		count            int
	}
	buckets := make(map[string]*acc)

	for _, txn := range txns {
		k := p.Key(txn.Date)
		a, ok := buckets[k]
		if !ok {
			a = &acc{}
			buckets[k] = a
		}
		if txn.IsIncome {
			a.income = a.income.Add(txn.AmountBase)
		} else {
			a.spending = a.spending.Add(txn.AmountBase)
		}
		a.count++
	}

	out := make([]PeriodSummary, 0, len(buckets))
	for k, a := range buckets {
		spending := a.spending.Abs()
		out = append(out, PeriodSummary{
			Period:   k,
			Spending: round2(spending),
			Income:   round2(a.income),
			Net:      round2(a.income.Sub(spending)),
			Count:    a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// spendingByMonth returns total spending magnitude per month, sorted.
func spendingByMonth(txns []model.Transaction, keep func(model.Transaction) bool) ([]string, map[string]decimal.Decimal) {
	totals := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		if txn.IsIncome || (keep != nil && !keep(txn)) {
			continue
		}
		k := Monthly.Key(txn.Date)
		totals[k] = totals[k].Add(txn.AmountBase)
	}
	months := make([]string, 0, len(totals))
	for k, v := range totals {
		totals[k] = v.Abs()
		months = append(months, k)
	}
	sort.Strings(months)
	return months, totals
}

// Day returns the calendar date of txn as YYYY-MM-DD.
func Day(txn model.Transaction) string { return txn.Date.Format(dateFormat) }
