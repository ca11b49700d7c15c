// Package currency converts foreign amounts into the reporting currency
// using fixed, process-wide rates. Rates are never fetched live.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when no rate is configured for a currency.
var ErrUnknownCurrency = errors.New("no conversion rate for currency")

// Converter holds the base currency and the fixed rates into it.
type Converter struct {
	base  string
	rates map[string]decimal.Decimal // base units per one foreign unit
}

// NewConverter builds a Converter from "foreign units per one base unit"
// quotes, e.g. {"KRW": 1750} for 1 GBP = 1750 KRW.
func NewConverter(base string, perBase map[string]float64) (*Converter, error) {
	base = normalizeCode(base)
	if base == "" {
		return nil, errors.New("base currency is required")
	}
	rates := make(map[string]decimal.Decimal, len(perBase))
	for code, quote := range perBase {
		q := decimal.NewFromFloat(quote)
		if !q.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive, got %s", code, q)
		}
		rates[normalizeCode(code)] = decimal.NewFromInt(1).Div(q)
	}
	return &Converter{base: base, rates: rates}, nil
}

// Base returns the reporting currency code.
func (c *Converter) Base() string { return c.base }

// Rate returns the multiplier from code into the base currency.
func (c *Converter) Rate(code string) (decimal.Decimal, error) {
	code = normalizeCode(code)
	if code == c.base {
		return decimal.NewFromInt(1), nil
	}
	r, ok := c.rates[code]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return r, nil
}

// ToBase converts amount in code into the base currency. The sign of
// amount is preserved.
func (c *Converter) ToBase(code string, amount decimal.Decimal) (decimal.Decimal, error) {
	r, err := c.Rate(code)
	if err != nil {
		return decimal.Zero, err
	}
	if r.Equal(decimal.NewFromInt(1)) {
		return amount, nil
	}
	return amount.Mul(r), nil
}

// IsBase reports whether code is the reporting currency.
func (c *Converter) IsBase(code string) bool {
	return normalizeCode(code) == c.base
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
