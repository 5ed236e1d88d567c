package storage

import "github.com/mmynk/splitledger/internal/models"

// Mutation is the set of entity writes the ledger needs applied as one unit.
//
// For Expenses, Users and Groups, an entity with Version 0 is inserted and
// must not exist yet; any other entity is an update that only succeeds when
// the stored Version still equals the entity's Version (compare-and-swap).
// A successful write stores Version+1 and advances the Version of the
// passed entity in place. Any failed check aborts the whole
// mutation with apperrors.ErrMutationConflict (or ErrAlreadyExists for a
// duplicate insert) and nothing is written.
//
// Settlements are append-only and always inserted.
type Mutation struct {
	Expenses    []*models.Expense
	Users       []*models.User
	Groups      []*models.Group
	Settlements []*models.Settlement
}

// IsEmpty reports whether the mutation writes nothing.
func (m Mutation) IsEmpty() bool {
	return len(m.Expenses) == 0 && len(m.Users) == 0 && len(m.Groups) == 0 && len(m.Settlements) == 0
}
