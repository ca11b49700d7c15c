package ledger

import (
	"sort"
	"strings"

	"github.com/tallyhq/tally/internal/model"
)

// Merge appends incoming to existing, collapses records that are equal in
// every field, and sorts the result by date. The sort is stable, so records
// sharing a date keep their input order and the first of any duplicate set
// survives. Neither input slice is modified.
func Merge(existing, incoming []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	add := func(txns []model.Transaction) {
		for _, txn := range txns {
			k := Key(txn)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, txn)
		}
	}
	add(existing)
	add(incoming)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Key is the full-record identity used for de-duplication. Two records have
// the same key exactly when they serialize to the same ledger row.
func Key(txn model.Transaction) string {
	return strings.Join(MarshalTransaction(txn), "\x1f")
}

// CountNew reports how many of incoming are not already in existing (and
// not repeated earlier in incoming).
func CountNew(existing, incoming []model.Transaction) int {
	seen := make(map[string]struct{}, len(existing))
	for _, txn := range existing {
		seen[Key(txn)] = struct{}{}
	}
	n := 0
	for _, txn := range incoming {
		k := Key(txn)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		n++
	}
	return n
}
