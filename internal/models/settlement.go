package models

import (
	"slices"
	"time"
)

// Settlement records a participant settling out of their open expenses.
// It is written in the same atomic mutation that removes the participant.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// UserID is the participant who was removed.
	UserID string

	// ExpenseIDs are the expenses the participant was removed from.
	ExpenseIDs []string

	// CreatedAt is when the settlement was applied.
	CreatedAt time.Time
}

// Clone returns a deep copy of the settlement.
func (s *Settlement) Clone() *Settlement {
	c := *s
	c.ExpenseIDs = slices.Clone(s.ExpenseIDs)
	return &c
}
