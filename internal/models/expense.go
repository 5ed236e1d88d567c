package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// SplitType selects how an expense amount is divided among participants.
type SplitType string

const (
	// SplitEqual divides the amount equally among all participants.
	SplitEqual SplitType = "equal"
)

// Expense is a single shared expense.
//
// Amount is always the total paid, never a per-person share.
// PaidBy must be one of Participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group the expense belongs to.
	GroupID string

	// Description is the human-readable label (e.g., "Dinner", "Hotel").
	Description string

	// Category is an optional free-text category from the add-expense form.
	Category string

	// Amount is the total expense amount. Always positive.
	Amount decimal.Decimal

	// PaidBy is the user ID of the participant who paid.
	PaidBy string

	// Participants are the user IDs sharing the expense, payer included.
	Participants []string

	// SplitType is the split strategy. Only SplitEqual is defined.
	SplitType SplitType

	// CreatedBy is the user ID that recorded the expense.
	CreatedBy string

	// CreatedAt is when the expense was recorded.
	CreatedAt time.Time

	// IsSettled excludes the expense from balance views once true.
	IsSettled bool

	// Version is the optimistic-concurrency token. 0 means not yet persisted.
	Version int64
}

// HasParticipant reports whether userID shares this expense.
func (e *Expense) HasParticipant(userID string) bool {
	return slices.Contains(e.Participants, userID)
}

// Clone returns a deep copy of the expense.
func (e *Expense) Clone() *Expense {
	c := *e
	c.Participants = slices.Clone(e.Participants)
	return &c
}
