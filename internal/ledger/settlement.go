package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// RemoveParticipant settles userID out of every open expense they share but
// did not pay for. Amounts stay at the original total, so the remaining
// participants' shares grow. An expense left with only its payer is marked
// settled. Expenses paid by userID are left untouched.
//
// All affected expenses, the user's expense list and a Settlement record are
// written in one atomic mutation. Returns nil and writes nothing when no
// expense is affected.
func (s *Service) RemoveParticipant(ctx context.Context, userID string) (_ *models.Settlement, err error) {
	defer func() { metrics.ObserveOperation("remove_participant", err) }()

	var settlement *models.Settlement
	err = s.withRetry(ctx, "remove_participant", func(ctx context.Context) error {
		settlement = nil
		m, err := s.removeParticipantMutation(ctx, userID)
		if err != nil || m.IsEmpty() {
			return err
		}
		if err := s.store.ApplyMutation(ctx, m); err != nil {
			return err
		}
		settlement = m.Settlements[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove participant: %w", err)
	}
	if settlement == nil {
		slog.Debug("No open expenses to settle", "user_id", userID)
		return nil, nil
	}

	slog.Info("Participant removed from expenses",
		"user_id", userID,
		"settlement_id", settlement.ID,
		"expenses", len(settlement.ExpenseIDs),
	)
	s.publish(ctx, events.Event{
		Type:       events.ParticipantRemoved,
		UserID:     userID,
		ExpenseIDs: settlement.ExpenseIDs,
	})
	return settlement.Clone(), nil
}

func (s *Service) removeParticipantMutation(ctx context.Context, userID string) (storage.Mutation, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return storage.Mutation{}, err
	}

	expenses, err := s.store.FindExpensesByParticipant(ctx, userID)
	if err != nil {
		return storage.Mutation{}, err
	}

	var affected []*models.Expense
	for _, e := range expenses {
		if e.IsSettled {
			continue
		}
		if e.PaidBy == userID {
			slog.Debug("Skipping expense paid by removed participant", "expense_id", e.ID, "user_id", userID)
			continue
		}
		e.Participants = slices.DeleteFunc(e.Participants, func(id string) bool { return id == userID })
		if len(e.Participants) == 1 {
			e.IsSettled = true
		}
		affected = append(affected, e)
	}
	if len(affected) == 0 {
		return storage.Mutation{}, nil
	}

	ids := make([]string, len(affected))
	for i, e := range affected {
		ids[i] = e.ID
	}
	user.ExpenseIDs = slices.DeleteFunc(user.ExpenseIDs, func(id string) bool { return slices.Contains(ids, id) })

	return storage.Mutation{
		Expenses: affected,
		Users:    []*models.User{user},
		Settlements: []*models.Settlement{{
			ID:         s.newID(),
			UserID:     userID,
			ExpenseIDs: ids,
			CreatedAt:  s.now(),
		}},
	}, nil
}

// ListSettlements returns the settlements of userID, newest first.
func (s *Service) ListSettlements(ctx context.Context, userID string) ([]*models.Settlement, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	settlements, err := s.store.ListSettlementsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}
