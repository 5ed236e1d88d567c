package ledger

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// DefaultRecentLimit is how many expenses RecentExpenses returns when the
// caller passes no limit.
const DefaultRecentLimit = 3

// RecordExpense validates and stores a new expense. In the same atomic
// mutation it links the expense to every participant, bumps the group's
// running total and adds participants who are not yet group members.
//
// At least one participant must already belong to the group.
func (s *Service) RecordExpense(ctx context.Context, input *models.Expense) (_ *models.Expense, err error) {
	defer func() { metrics.ObserveOperation("record_expense", err) }()

	expense := input.Clone()
	if err := s.validateExpense(expense); err != nil {
		slog.Warn("Rejected expense", "group_id", expense.GroupID, "error", err)
		return nil, err
	}
	expense.ID = s.newID()
	expense.CreatedAt = s.now()
	expense.IsSettled = false

	err = s.withRetry(ctx, "record_expense", func(ctx context.Context) error {
		expense.Version = 0
		m, err := s.recordExpenseMutation(ctx, expense)
		if err != nil {
			return err
		}
		return s.store.ApplyMutation(ctx, m)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record expense: %w", err)
	}

	slog.Info("Expense recorded",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"amount", expense.Amount.String(),
		"participants", len(expense.Participants),
	)
	s.publish(ctx, events.Event{
		Type:       events.ExpenseRecorded,
		UserID:     expense.CreatedBy,
		GroupID:    expense.GroupID,
		ExpenseIDs: []string{expense.ID},
		Amount:     expense.Amount.StringFixed(2),
	})
	return expense.Clone(), nil
}

func (s *Service) recordExpenseMutation(ctx context.Context, expense *models.Expense) (storage.Mutation, error) {
	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return storage.Mutation{}, err
	}

	users, err := s.store.GetUsersByIDs(ctx, expense.Participants)
	if err != nil {
		return storage.Mutation{}, err
	}
	for _, id := range expense.Participants {
		if _, ok := users[id]; !ok {
			return storage.Mutation{}, apperrors.NotFound("user", id)
		}
	}

	if !slices.ContainsFunc(expense.Participants, group.HasMember) {
		return storage.Mutation{}, apperrors.ValidationError{
			Field:   "participants",
			Message: "at least one participant must be a member of the group",
		}
	}

	m := storage.Mutation{
		Expenses: []*models.Expense{expense},
		Groups:   []*models.Group{group},
	}
	for _, id := range expense.Participants {
		u := users[id]
		u.ExpenseIDs = append(u.ExpenseIDs, expense.ID)
		// Auto-add participants to the group
		if !group.HasMember(id) {
			group.Members = append(group.Members, id)
			slog.Info("Auto-adding participant to group", "group_id", group.ID, "user_id", id)
		}
		if !slices.Contains(u.Groups, group.ID) {
			u.Groups = append(u.Groups, group.ID)
		}
		m.Users = append(m.Users, u)
	}
	group.TotalExpenses = group.TotalExpenses.Add(expense.Amount)

	return m, nil
}

// GetExpense returns an expense by ID, settled or not.
func (s *Service) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// SettleExpense marks an expense as settled, removing it from every balance
// view. Settling an already settled expense is a no-op.
func (s *Service) SettleExpense(ctx context.Context, expenseID string) (_ *models.Expense, err error) {
	defer func() { metrics.ObserveOperation("settle_expense", err) }()

	var (
		expense *models.Expense
		changed bool
	)
	err = s.withRetry(ctx, "settle_expense", func(ctx context.Context) error {
		e, err := s.store.GetExpense(ctx, expenseID)
		if err != nil {
			return err
		}
		expense, changed = e, false
		if e.IsSettled {
			return nil
		}
		e.IsSettled = true
		changed = true
		return s.store.ApplyMutation(ctx, storage.Mutation{Expenses: []*models.Expense{e}})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle expense: %w", err)
	}

	if changed {
		slog.Info("Expense settled", "expense_id", expense.ID, "group_id", expense.GroupID)
		s.publish(ctx, events.Event{
			Type:       events.ExpenseSettled,
			GroupID:    expense.GroupID,
			ExpenseIDs: []string{expense.ID},
			Amount:     expense.Amount.StringFixed(2),
		})
	}
	return expense, nil
}

// RecentExpenses returns the expenses userID participates in, newest first,
// capped at limit (DefaultRecentLimit when limit <= 0). Settled expenses are
// included.
func (s *Service) RecentExpenses(ctx context.Context, userID string, limit int) ([]*models.Expense, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	expenses, err := s.store.FindExpensesByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses for user %s: %w", userID, err)
	}

	slices.SortStableFunc(expenses, func(a, b *models.Expense) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(expenses) > limit {
		expenses = expenses[:limit]
	}
	return expenses, nil
}

// ExpenseUserNames returns display names for every payer and participant of
// expenses, keyed by user ID.
func (s *Service) ExpenseUserNames(ctx context.Context, expenses []*models.Expense) (map[string]string, error) {
	return s.DisplayNames(ctx, userIDs(expenses))
}
