package ledger

import (
	"fmt"

	"github.com/tallyhq/tally/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Row         int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [row %d]: %s", e.Invariant, e.Row, e.Description)
}

// Validate enforces the canonical record invariants on txns. Row numbers
// are zero-based positions in txns.
func Validate(txns []model.Transaction) []ValidationError {
	var errs []ValidationError

	for i, txn := range txns {
		// Invariant 1: every record has a date.
		if txn.Date.IsZero() {
			errs = append(errs, ValidationError{
				Invariant:   1,
				Row:         i,
				Description: "date is missing",
			})
		}

		// Invariant 2: sign of amount_base agrees with is_income.
		if !txn.AmountBase.IsZero() && txn.AmountBase.IsPositive() != txn.IsIncome {
			errs = append(errs, ValidationError{
				Invariant:   2,
				Row:         i,
				Description: fmt.Sprintf("amount_base %s disagrees with is_income=%t", txn.AmountBase, txn.IsIncome),
			})
		}

		// Invariant 3: original_amount is a magnitude.
		if txn.OriginalAmount.IsNegative() {
			errs = append(errs, ValidationError{
				Invariant:   3,
				Row:         i,
				Description: fmt.Sprintf("original_amount %s is negative", txn.OriginalAmount),
			})
		}

		// Invariant 4: original currency is recorded.
		if txn.OriginalCurrency == "" {
			errs = append(errs, ValidationError{
				Invariant:   4,
				Row:         i,
				Description: "original_currency is empty",
			})
		}
	}

	return errs
}
