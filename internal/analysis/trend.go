package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/model"
)

// movingAvgWindow is the number of months in the spending moving average.
const movingAvgWindow = 3

// TrendPoint is one month of the spending trend. Change and ChangePct are
// null for the first month, and ChangePct also when the prior month is zero.
type TrendPoint struct {
	Month       string              `json:"month"`
	Spending    decimal.Decimal     `json:"spending"`
	Change      decimal.NullDecimal `json:"change"`
	ChangePct   decimal.NullDecimal `json:"change_pct"`
	MovingAvg3M decimal.Decimal     `json:"moving_avg_3m"`
}

// Trend returns month-over-month spending with a trailing moving average
// over up to three months.
func Trend(txns []model.Transaction) []TrendPoint {
	months, totals := spendingByMonth(txns, nil)

	out := make([]TrendPoint, len(months))
	for i, m := range months {
		cur := totals[m]
		pt := TrendPoint{Month: m, Spending: round2(cur)}

		if i > 0 {
			prev := totals[months[i-1]]
			pt.Change = decimal.NewNullDecimal(round2(cur.Sub(prev)))
			if !prev.IsZero() {
				pt.ChangePct = decimal.NewNullDecimal(cur.Sub(prev).Div(prev).Mul(hundred).Round(1))
			}
		}

		start := max(0, i-movingAvgWindow+1)
		sum := decimal.Zero
		for _, w := range months[start : i+1] {
			sum = sum.Add(totals[w])
		}
		pt.MovingAvg3M = round2(sum.Div(decimal.NewFromInt(int64(i - start + 1))))

		out[i] = pt
	}
	return out
}

// Dataset is one category's monthly spending series.
type Dataset struct {
	Label string            `json:"label"`
	Data  []decimal.Decimal `json:"data"`
}

// CategorySeries is monthly spending for the top categories, aligned on
// Labels.
type CategorySeries struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// CategoryTrends pivots monthly spending for the topN categories by total
// spending. Months with no spending in any of them are omitted.
func CategoryTrends(txns []model.Transaction, topN int) CategorySeries {
	cats := Categories(txns)
	if len(cats) > topN {
		cats = cats[:topN]
	}
	top := make(map[string]bool, len(cats))
	for _, c := range cats {
		top[c.Category] = true
	}

	months, _ := spendingByMonth(txns, func(t model.Transaction) bool { return top[t.Category] })
	series := CategorySeries{Labels: months, Datasets: make([]Dataset, 0, len(cats))}

	for _, c := range cats {
		name := c.Category
		_, totals := spendingByMonth(txns, func(t model.Transaction) bool { return t.Category == name })
		ds := Dataset{Label: name, Data: make([]decimal.Decimal, len(months))}
		for i, m := range months {
			ds.Data[i] = round2(totals[m])
		}
		series.Datasets = append(series.Datasets, ds)
	}
	return series
}
