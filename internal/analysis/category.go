package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/model"
)

// ErrCategoryNotFound is returned when no record has the category.
var ErrCategoryNotFound = errors.New("category not found")

var hundred = decimal.NewFromInt(100)

// CategoryTotal is the spending in one category.
type CategoryTotal struct {
	Category   string          `json:"category"`
	Total      decimal.Decimal `json:"total"`
	Percentage decimal.Decimal `json:"percentage"`
	Count      int             `json:"count"`
}

// Categories breaks spending down by category, largest first. Percentages
// are of total spending and rounded to one decimal place.
func Categories(txns []model.Transaction) []CategoryTotal {
	totals, counts := groupSpending(txns, func(t model.Transaction) string { return t.Category })

	grand := decimal.Zero
	for _, v := range totals {
		grand = grand.Add(v)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for name, total := range totals {
		pct := decimal.Zero
		if !grand.IsZero() {
			pct = total.Div(grand).Mul(hundred).Round(1)
		}
		out = append(out, CategoryTotal{
			Category:   name,
			Total:      round2(total),
			Percentage: pct,
			Count:      counts[name],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MerchantTotal is the spending at one merchant.
type MerchantTotal struct {
	Merchant string          `json:"merchant"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// TopMerchants returns the n merchants with the most spending.
func TopMerchants(txns []model.Transaction, n int) []MerchantTotal {
	totals, counts := groupSpending(txns, func(t model.Transaction) string { return t.Merchant })

	out := make([]MerchantTotal, 0, len(totals))
	for name, total := range totals {
		out = append(out, MerchantTotal{Merchant: name, Total: round2(total), Count: counts[name]})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Merchant < out[j].Merchant
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// groupSpending sums spending magnitude and counts per key.
func groupSpending(txns []model.Transaction, key func(model.Transaction) string) (map[string]decimal.Decimal, map[string]int) {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, txn := range txns {
		if txn.IsIncome {
			continue
		}
		k := key(txn)
		sums[k] = sums[k].Add(txn.AmountBase)
		counts[k]++
	}
	for k, v := range sums {
		sums[k] = v.Abs()
	}
	return sums, counts
}

// PeriodAmount is one bucket of a category chart.
type PeriodAmount struct {
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
}

// CategoryTransaction is one row of a category drill-down.
type CategoryTransaction struct {
	Date     string          `json:"date"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
}

// CategoryReport is a drill-down into a single category.
type CategoryReport struct {
	Category     string                `json:"category"`
	Period       Period                `json:"period"`
	ChartData    []PeriodAmount        `json:"chart_data"`
	Transactions []CategoryTransaction `json:"transactions"`
	Total        decimal.Decimal       `json:"total"`
	Count        int                   `json:"count"`
}

// CategoryDetail buckets every record in category name by p. Category
// matching ignores case.
func CategoryDetail(txns []model.Transaction, name string, p Period) (*CategoryReport, error) {
	if _, err := ParsePeriod(string(p)); err != nil {
		return nil, err
	}

	rep := &CategoryReport{Period: p}
	buckets := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, txn := range txns {
		if !strings.EqualFold(txn.Category, name) {
			continue
		}
		if rep.Category == "" {
			rep.Category = txn.Category
		}
		k := p.Key(txn.Date)
		buckets[k] = buckets[k].Add(txn.AmountBase)
		total = total.Add(txn.AmountBase.Abs())
		rep.Transactions = append(rep.Transactions, CategoryTransaction{
			Date:     Day(txn),
			Merchant: txn.Merchant,
			Amount:   round2(txn.AmountBase),
			Type:     txn.Type,
		})
	}

	if len(rep.Transactions) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
	}

	for k, v := range buckets {
		rep.ChartData = append(rep.ChartData, PeriodAmount{Period: k, Amount: round2(v.Abs())})
	}
	sort.Slice(rep.ChartData, func(i, j int) bool { return rep.ChartData[i].Period < rep.ChartData[j].Period })
	rep.Total = round2(total)
	rep.Count = len(rep.Transactions)
	return rep, nil
}
