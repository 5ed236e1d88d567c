package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func TestStore_ApplyMutation(t *testing.T) {
	ctx := context.Background()
	store := New()

	user := &models.User{ID: "u1", Email: "u1@example.com", Name: "u1"}
	group := &models.Group{ID: "g1", Name: "Trip", Members: []string{"u1"}}
	expense := &models.Expense{
		ID: "e1", GroupID: "g1", Amount: decimal.NewFromInt(10),
		PaidBy: "u1", Participants: []string{"u1"}, SplitType: models.SplitEqual,
	}

	require.NoError(t, store.ApplyMutation(ctx, storage.Mutation{
		Users:    []*models.User{user},
		Groups:   []*models.Group{group},
		Expenses: []*models.Expense{expense},
	}))
	assert.Equal(t, int64(1), expense.Version)

	t.Run("returned values are copies", func(t *testing.T) {
		got, err := store.GetExpense(ctx, "e1")
		require.NoError(t, err)
		got.Participants[0] = "someone-else"

		again, err := store.GetExpense(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, again.Participants)
	})

	t.Run("stale update conflicts without partial writes", func(t *testing.T) {
		g := group.Clone()
		g.Name = "Renamed"
		stale := expense.Clone()
		stale.Version = 0 // looks like an insert of an existing ID

		err := store.ApplyMutation(ctx, storage.Mutation{
			Groups:   []*models.Group{g},
			Expenses: []*models.Expense{stale},
		})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

		got, err := store.GetGroup(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "Trip", got.Name)

		old := expense.Clone()
		old.Version = 5
		err = store.ApplyMutation(ctx, storage.Mutation{Expenses: []*models.Expense{old}})
		assert.ErrorIs(t, err, apperrors.ErrMutationConflict)
	})

	t.Run("lookups by predicate", func(t *testing.T) {
		byGroup, err := store.FindExpensesByGroup(ctx, "g1")
		require.NoError(t, err)
		assert.Len(t, byGroup, 1)

		byParticipant, err := store.FindExpensesByParticipant(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, byParticipant)

		_, err = store.FindExpensesByIDs(ctx, []string{"e1", "e2"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		byEmail, err := store.GetUserByEmail(ctx, "U1@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", byEmail.ID)
	})
}
