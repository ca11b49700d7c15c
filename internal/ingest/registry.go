// Package ingest turns raw bank exports into canonical transactions and
// merges them into the ledger. Format detection is an ordered list of
// (match, normalizer) rules; the first rule whose match accepts the table
// wins.
package ingest

import (
	"github.com/tallyhq/tally/internal/currency"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/table"
)

// Format names a known source layout.
type Format string

// Known formats.
const (
	FormatMonzo        Format = "monzo"
	FormatTravelWallet Format = "travelwallet"
	FormatGeneric      Format = "generic"
)

// Batch is the output of one normalizer run. Rows that could not be used
// are counted in Skipped rather than reported as errors.
type Batch struct {
	Records  []model.Transaction
	Skipped  int
	Bank     string
	Currency string
}

// Normalizer maps one source layout onto canonical transactions.
type Normalizer interface {
	Normalize(t *table.Table) (Batch, error)
	Format() Format
}

// MatchFunc reports whether a table looks like a normalizer's layout.
type MatchFunc func(t *table.Table) bool

type rule struct {
	match      MatchFunc
	normalizer Normalizer
}

// Registry holds normalizers in priority order.
type Registry struct {
	rules   []rule
	formats map[Format]Normalizer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[Format]Normalizer)}
}

// Register appends a rule. Rules are tried in registration order. Panics
// on duplicate format.
func (r *Registry) Register(n Normalizer, match MatchFunc) {
	if _, ok := r.formats[n.Format()]; ok {
		panic("duplicate normalizer format: " + string(n.Format()))
	}
	r.formats[n.Format()] = n
	r.rules = append(r.rules, rule{match: match, normalizer: n})
}

// Detect returns the first normalizer whose rule matches t, or nil.
func (r *Registry) Detect(t *table.Table) Normalizer {
	for _, rl := range r.rules {
		if rl.match(t) {
			return rl.normalizer
		}
	}
	return nil
}

// Get returns the normalizer for format, or nil.
func (r *Registry) Get(format Format) Normalizer {
	return r.formats[format]
}

// Formats lists registered formats in priority order.
func (r *Registry) Formats() []Format {
	out := make([]Format, len(r.rules))
	for i, rl := range r.rules {
		out[i] = rl.normalizer.Format()
	}
	return out
}

// DefaultRegistry returns Monzo, TravelWallet and the generic fallback,
// in that order.
func DefaultRegistry(conv *currency.Converter) *Registry {
	r := NewRegistry()
	r.Register(NewMonzo(conv), MatchMonzo)
	r.Register(NewTravelWallet(conv), MatchTravelWallet)
	r.Register(NewGeneric(conv), MatchAny)
	return r
}

// MatchMonzo accepts tables with a transaction-ID column or the
// Date/Name/Category triple.
func MatchMonzo(t *table.Table) bool {
	if t.Has(monzoColID) {
		return true
	}
	return t.Has(monzoColDate) && t.Has(monzoColName) && t.Has(monzoColCategory)
}

// travelWalletMarkers are column-name fragments unique to TravelWallet
// exports: merchant, payment type and KRW amount.
var travelWalletMarkers = []string{"가맹점", "종류", "원화금액"}

// MatchTravelWallet accepts tables with any column containing one of the
// Korean merchant, type or KRW-amount markers.
func MatchTravelWallet(t *table.Table) bool {
	return t.FindContaining(travelWalletMarkers...) >= 0
}

// MatchAny accepts every table.
func MatchAny(*table.Table) bool { return true }
