package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

// Balances is a consolidated balance view with its headline totals.
type Balances struct {
	Balances  []calculator.NetBalance
	OwedToYou decimal.Decimal
	YouOwe    decimal.Decimal
}

// GetUserBalances computes what each counterparty owes userID, or is owed by
// them, across all of the user's unsettled expenses.
func (s *Service) GetUserBalances(ctx context.Context, userID string) (_ *Balances, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveBalance("user", start)
		metrics.ObserveOperation("get_user_balances", err)
	}()

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	expenses, err := s.store.FindExpensesByIDs(ctx, user.ExpenseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses for user %s: %w", userID, err)
	}

	results := make([][]calculator.SplitResult, 0, len(expenses))
	for _, e := range expenses {
		if e.IsSettled {
			continue
		}
		split, err := calculator.ComputeSplit(*e, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to split expense %s: %w", e.ID, err)
		}
		results = append(results, split)
	}

	return s.consolidate(ctx, results)
}

// GetGroupBalances computes balances over all unsettled expenses of a group.
// Each expense is viewed from the perspective of the user who recorded it,
// so rows from different expenses may describe different pairs of users.
func (s *Service) GetGroupBalances(ctx context.Context, groupID string) (_ *Balances, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveBalance("group", start)
		metrics.ObserveOperation("get_group_balances", err)
	}()

	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	expenses, err := s.store.FindExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses for group %s: %w", groupID, err)
	}

	results := make([][]calculator.SplitResult, 0, len(expenses))
	for _, e := range expenses {
		if e.IsSettled {
			continue
		}
		split, err := calculator.ComputeSplit(*e, e.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("failed to split expense %s: %w", e.ID, err)
		}
		results = append(results, split)
	}

	return s.consolidate(ctx, results)
}

// consolidate nets the split results and attaches counterparty names.
func (s *Service) consolidate(ctx context.Context, results [][]calculator.SplitResult) (*Balances, error) {
	balances := calculator.Consolidate(results)

	ids := make([]string, len(balances))
	for i, b := range balances {
		ids[i] = b.CounterpartyID
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get counterparties: %w", err)
	}
	for i := range balances {
		u, ok := users[balances[i].CounterpartyID]
		if !ok {
			slog.Error("Balance references unknown user", "user_id", balances[i].CounterpartyID)
			return nil, apperrors.NotFound("user", balances[i].CounterpartyID)
		}
		balances[i].Name = u.Name
	}

	owedToYou, youOwe := calculator.Totals(balances)
	return &Balances{
		Balances:  balances,
		OwedToYou: owedToYou,
		YouOwe:    youOwe,
	}, nil
}

// DisplayNames returns the names of the given users keyed by ID. Unknown
// users are omitted.
func (s *Service) DisplayNames(ctx context.Context, ids []string) (map[string]string, error) {
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	names := make(map[string]string, len(users))
	for id, u := range users {
		names[id] = u.Name
	}
	return names, nil
}

func userIDs(expenses []*models.Expense) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range expenses {
		for _, id := range append([]string{e.PaidBy}, e.Participants...) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
