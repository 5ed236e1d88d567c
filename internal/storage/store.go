// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Store defines the Expense Store collaborator used by the ledger core.
// This abstraction allows swapping storage backends (SQLite, in-memory, ...)
// without changing the ledger.
//
// Every lookup returns copies; mutating a returned value has no effect until
// it is written back through ApplyMutation.
type Store interface {
	// GetExpense retrieves an expense by ID, settled or not.
	// Returns an error wrapping apperrors.ErrNotFound if it does not exist.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// FindExpensesByIDs retrieves the expenses with the given IDs, in the
	// order requested. Any unknown ID fails the whole call with ErrNotFound.
	FindExpensesByIDs(ctx context.Context, ids []string) ([]*models.Expense, error)

	// FindExpensesByGroup retrieves all expenses of a group, oldest first.
	FindExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// FindExpensesByParticipant retrieves all expenses whose participants
	// contain userID, oldest first.
	FindExpensesByParticipant(ctx context.Context, userID string) ([]*models.Expense, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail retrieves a user by (case-insensitive) email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUsersByIDs retrieves multiple users keyed by ID.
	// Users that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// ListSettlementsByUser retrieves the settlements of a user, newest first.
	ListSettlementsByUser(ctx context.Context, userID string) ([]*models.Settlement, error)

	// ApplyMutation atomically applies every entity write in m, or none.
	ApplyMutation(ctx context.Context, m Mutation) error

	// Close releases any resources held by the store.
	Close() error
}
