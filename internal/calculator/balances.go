package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// NetBalance is the consolidated amount between the viewpoint user and one
// counterparty across many expenses. Amount is always strictly positive.
type NetBalance struct {
	CounterpartyID string
	// Name is the counterparty's display name, filled in by the ledger.
	Name      string
	Amount    decimal.Decimal
	Direction Direction
}

// Consolidate merges per-expense split results into one net balance per counterparty.
//
// Algorithm:
//   - owes_you rows add +amount, you_owe rows add -amount to a running total per counterparty
//   - positive totals become owes_you, negative totals you_owe with the absolute amount
//   - counterparties netting to exactly zero are dropped
//   - totals are rounded to 2 places once, after summation
//
// Inputs are already rounded per row by ComputeSplit, so a total derived from
// many rows can drift from the exact figure by up to a cent per counterparty.
//
// Rows are sorted by counterparty ID; callers should still treat the result as a set.
func Consolidate(results [][]SplitResult) []NetBalance {
	net := make(map[string]decimal.Decimal)

	for _, expenseResult := range results {
		for _, r := range expenseResult {
			switch r.Direction {
			case OwesYou:
				net[r.CounterpartyID] = net[r.CounterpartyID].Add(r.Amount)
			case YouOwe:
				net[r.CounterpartyID] = net[r.CounterpartyID].Sub(r.Amount)
			}
		}
	}

	var balances []NetBalance
	for id, amount := range net {
		amount = amount.Round(amountPlaces)
		switch amount.Sign() {
		case 1:
			balances = append(balances, NetBalance{CounterpartyID: id, Amount: amount, Direction: OwesYou})
		case -1:
			balances = append(balances, NetBalance{CounterpartyID: id, Amount: amount.Abs(), Direction: YouOwe})
		}
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].CounterpartyID < balances[j].CounterpartyID
	})

	return balances
}

// Totals sums a set of net balances into what others owe the viewpoint user
// and what the viewpoint user owes others.
func Totals(balances []NetBalance) (owedToYou, youOwe decimal.Decimal) {
	for _, b := range balances {
		switch b.Direction {
		case OwesYou:
			owedToYou = owedToYou.Add(b.Amount)
		case YouOwe:
			youOwe = youOwe.Add(b.Amount)
		}
	}
	return owedToYou, youOwe
}
