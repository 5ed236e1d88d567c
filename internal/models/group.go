package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Group is a set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Trip to Vegas").
	Name string

	// Description is optional free text.
	Description string

	// Members are the user IDs belonging to the group.
	Members []string

	// TotalExpenses is the running sum of all expense amounts recorded in
	// the group. Derived, maintained by the ledger on every new expense.
	TotalExpenses decimal.Decimal

	// CreatedBy is the user ID that created the group.
	CreatedBy string

	// CreatedAt is when the group was created.
	CreatedAt time.Time

	// Version is the optimistic-concurrency token. 0 means not yet persisted.
	Version int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = slices.Clone(g.Members)
	return &c
}
