package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/model"
)

func TestMerge_DedupAndSort(t *testing.T) {
	var existing []model.Transaction
	for i := 0; i < 100; i++ {
		existing = append(existing, spend(i%28+1, fmt.Sprintf("shop-%d", i), "1.00"))
	}

	var incoming []model.Transaction
	incoming = append(incoming, existing[5], existing[50], existing[99])
	for i := 0; i < 7; i++ {
		incoming = append(incoming, spend(i+1, fmt.Sprintf("new-%d", i), "2.00"))
	}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 107)
	for i := 1; i < len(merged); i++ {
		assert.False(t, merged[i].Date.Before(merged[i-1].Date), "row %d out of order", i)
	}
}

func TestMerge_StableForEqualDates(t *testing.T) {
	a := spend(2, "A", "1")
	b := spend(2, "B", "1")
	c := spend(1, "C", "1")

	merged := Merge([]model.Transaction{a, b}, []model.Transaction{c})
	assert.Equal(t, []string{"C", "A", "B"}, merchants(merged))
}

func TestMerge_EquivalentDecimalsCollapse(t *testing.T) {
	a := spend(2, "A", "12.50")
	b := spend(2, "A", "12.5")

	merged := Merge([]model.Transaction{a}, []model.Transaction{b})
	assert.Len(t, merged, 1)
}

func TestMerge_Idempotent(t *testing.T) {
	batch := []model.Transaction{spend(3, "A", "1"), spend(1, "B", "2"), spend(1, "B", "2")}

	once := Merge(nil, batch)
	twice := Merge(once, batch)
	assert.Len(t, once, 2)
	assert.Equal(t, rows(once), rows(twice))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := []model.Transaction{spend(5, "A", "1"), spend(1, "B", "1")}
	Merge(existing, nil)
	assert.Equal(t, []string{"A", "B"}, merchants(existing))
}

func TestCountNew(t *testing.T) {
	existing := []model.Transaction{spend(1, "A", "1")}
	incoming := []model.Transaction{spend(1, "A", "1"), spend(2, "B", "1"), spend(2, "B", "1")}
	assert.Equal(t, 1, CountNew(existing, incoming))
}

func merchants(txns []model.Transaction) []string {
	out := make([]string, len(txns))
	for i, txn := range txns {
		out[i] = txn.Merchant
	}
	return out
}
