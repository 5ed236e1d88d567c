package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
)

// Direction says which way money flows between the viewpoint user and a counterparty.
type Direction string

const (
	// OwesYou means the counterparty owes the viewpoint user.
	OwesYou Direction = "owes_you"
	// YouOwe means the viewpoint user owes the counterparty.
	YouOwe Direction = "you_owe"
)

// amountPlaces is the number of decimal places every emitted amount is rounded to.
const amountPlaces = 2

// SplitResult is what one counterparty owes (or is owed) on a single expense,
// relative to a fixed viewpoint user. Amount is never negative.
type SplitResult struct {
	CounterpartyID string
	Amount         decimal.Decimal
	Direction      Direction
}

// ComputeSplit computes the signed amounts owed between viewpoint and every
// other participant of expense.
//
// Algorithm (equal split):
//   - share = amount / len(participants), rounded to 2 places (half away from zero)
//   - viewpoint paid: every other participant owes_you share
//   - a participant paid: viewpoint you_owe that payer share
//   - neither paid: nothing; non-payers only owe the payer
//
// The viewpoint user never appears in the output.
func ComputeSplit(expense models.Expense, viewpoint string) ([]SplitResult, error) {
	if expense.SplitType != models.SplitEqual {
		return nil, fmt.Errorf("expense %s: split type %q: %w", expense.ID, expense.SplitType, apperrors.ErrUnsupportedSplitKind)
	}
	if len(expense.Participants) == 0 {
		return nil, apperrors.ValidationError{Field: "participants", Message: "must have at least one participant"}
	}
	if !expense.Amount.IsPositive() {
		return nil, apperrors.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}

	share := expense.Amount.Div(decimal.NewFromInt(int64(len(expense.Participants))))

	var results []SplitResult
	for _, p := range expense.Participants {
		if p == viewpoint {
			continue
		}

		switch {
		case viewpoint == expense.PaidBy:
			results = append(results, SplitResult{
				CounterpartyID: p,
				Amount:         share.Round(amountPlaces),
				Direction:      OwesYou,
			})
		case p == expense.PaidBy:
			results = append(results, SplitResult{
				CounterpartyID: p,
				Amount:         share.Round(amountPlaces),
				Direction:      YouOwe,
			})
		}
	}

	return results, nil
}
