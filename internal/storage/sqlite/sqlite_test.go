package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

// seed writes two users, a group containing both and one expense between them.
func seed(t *testing.T, store *SQLiteStore) (*models.User, *models.User, *models.Group, *models.Expense) {
	t.Helper()
	ctx := context.Background()

	alice := models.NewUser("Alice@Example.com", "", "")
	alice.ID = uuid.NewString()
	bob := models.NewUser("bob@example.com", "Bob", "")
	bob.ID = uuid.NewString()

	group := &models.Group{
		ID:            uuid.NewString(),
		Name:          "Roommates",
		Members:       []string{alice.ID, bob.ID},
		TotalExpenses: decimal.RequireFromString("30"),
		CreatedBy:     alice.ID,
		CreatedAt:     time.Now().UTC(),
	}
	alice.Groups = []string{group.ID}
	bob.Groups = []string{group.ID}

	expense := &models.Expense{
		ID:           uuid.NewString(),
		GroupID:      group.ID,
		Description:  "Groceries",
		Amount:       decimal.RequireFromString("30.00"),
		PaidBy:       alice.ID,
		Participants: []string{alice.ID, bob.ID},
		SplitType:    models.SplitEqual,
		CreatedBy:    alice.ID,
		CreatedAt:    time.Now().UTC(),
	}
	alice.ExpenseIDs = []string{expense.ID}
	bob.ExpenseIDs = []string{expense.ID}

	err := store.ApplyMutation(ctx, storage.Mutation{
		Users:    []*models.User{alice, bob},
		Groups:   []*models.Group{group},
		Expenses: []*models.Expense{expense},
	})
	require.NoError(t, err)
	return alice, bob, group, expense
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("ApplyMutation inserts and advances versions", func(t *testing.T) {
		store := newTestStore(t)
		alice, _, group, expense := seed(t, store)

		assert.Equal(t, int64(1), alice.Version)
		assert.Equal(t, int64(1), group.Version)
		assert.Equal(t, int64(1), expense.Version)
	})

	t.Run("GetExpense retrieves complete expense", func(t *testing.T) {
		store := newTestStore(t)
		alice, bob, group, expense := seed(t, store)

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)

		assert.Equal(t, expense.ID, got.ID)
		assert.Equal(t, group.ID, got.GroupID)
		assert.Equal(t, "Groceries", got.Description)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("30")))
		assert.Equal(t, alice.ID, got.PaidBy)
		assert.Equal(t, []string{alice.ID, bob.ID}, got.Participants)
		assert.Equal(t, models.SplitEqual, got.SplitType)
		assert.False(t, got.IsSettled)
		assert.Equal(t, int64(1), got.Version)
		assert.WithinDuration(t, expense.CreatedAt, got.CreatedAt, time.Microsecond)
	})

	t.Run("GetExpense returns not found", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.GetExpense(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("GetUser loads groups and expense IDs", func(t *testing.T) {
		store := newTestStore(t)
		alice, _, group, expense := seed(t, store)

		got, err := store.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.Equal(t, "alice", got.Name)
		assert.Equal(t, []string{group.ID}, got.Groups)
		assert.Equal(t, []string{expense.ID}, got.ExpenseIDs)

		byEmail, err := store.GetUserByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byEmail.ID)
	})

	t.Run("GetUsersByIDs omits unknown users", func(t *testing.T) {
		store := newTestStore(t)
		alice, bob, _, _ := seed(t, store)

		users, err := store.GetUsersByIDs(ctx, []string{alice.ID, bob.ID, "ghost"})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, "Bob", users[bob.ID].Name)
	})

	t.Run("GetGroup loads members and total", func(t *testing.T) {
		store := newTestStore(t)
		alice, bob, group, _ := seed(t, store)

		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Roommates", got.Name)
		assert.Equal(t, []string{alice.ID, bob.ID}, got.Members)
		assert.Equal(t, "30.00", got.TotalExpenses.StringFixed(2))
	})

	t.Run("Find expenses by IDs, group and participant", func(t *testing.T) {
		store := newTestStore(t)
		_, bob, group, expense := seed(t, store)

		byIDs, err := store.FindExpensesByIDs(ctx, []string{expense.ID})
		require.NoError(t, err)
		require.Len(t, byIDs, 1)

		_, err = store.FindExpensesByIDs(ctx, []string{expense.ID, "missing"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		byGroup, err := store.FindExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, byGroup, 1)

		byParticipant, err := store.FindExpensesByParticipant(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, byParticipant, 1)
		assert.Equal(t, expense.ID, byParticipant[0].ID)

		none, err := store.FindExpensesByParticipant(ctx, "stranger")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("stale version conflicts and rolls back everything", func(t *testing.T) {
		store := newTestStore(t)
		_, bob, _, expense := seed(t, store)

		stale := expense.Clone()
		stale.Version = 7
		bob.ExpenseIDs = nil

		err := store.ApplyMutation(ctx, storage.Mutation{
			Users:    []*models.User{bob},
			Expenses: []*models.Expense{stale},
		})
		assert.ErrorIs(t, err, apperrors.ErrMutationConflict)
		assert.Equal(t, int64(1), bob.Version, "version must not advance on failure")

		got, err := store.GetUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{expense.ID}, got.ExpenseIDs, "user update must be rolled back")
	})

	t.Run("update with current version succeeds", func(t *testing.T) {
		store := newTestStore(t)
		alice, _, _, expense := seed(t, store)

		expense.Participants = []string{alice.ID}
		expense.IsSettled = true
		require.NoError(t, store.ApplyMutation(ctx, storage.Mutation{Expenses: []*models.Expense{expense}}))
		assert.Equal(t, int64(2), expense.Version)

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID}, got.Participants)
		assert.True(t, got.IsSettled)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		store := newTestStore(t)
		seed(t, store)

		dup := models.NewUser("alice@example.com", "Other Alice", "")
		dup.ID = uuid.NewString()
		err := store.ApplyMutation(ctx, storage.Mutation{Users: []*models.User{dup}})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	})

	t.Run("settlements round trip", func(t *testing.T) {
		store := newTestStore(t)
		_, bob, _, expense := seed(t, store)

		st := &models.Settlement{
			ID:         uuid.NewString(),
			UserID:     bob.ID,
			ExpenseIDs: []string{expense.ID},
			CreatedAt:  time.Now().UTC(),
		}
		require.NoError(t, store.ApplyMutation(ctx, storage.Mutation{Settlements: []*models.Settlement{st}}))

		got, err := store.ListSettlementsByUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, []string{expense.ID}, got[0].ExpenseIDs)
	})

	t.Run("reopening runs migrations idempotently", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reopen.db")
		first, err := New(path)
		require.NoError(t, err)
		require.NoError(t, first.Close())

		second, err := New(path)
		require.NoError(t, err)
		require.NoError(t, second.Close())
	})
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, placeholders(tt.n))
	}
}
