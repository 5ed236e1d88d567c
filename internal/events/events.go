// Package events publishes ledger domain events to interested consumers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Type names a domain event. It doubles as the AMQP routing key.
type Type string

const (
	ExpenseRecorded    Type = "expense.recorded"
	ExpenseSettled     Type = "expense.settled"
	ParticipantRemoved Type = "participant.removed"
	GroupCreated       Type = "group.created"
	GroupJoined        Type = "group.joined"
)

// Event is a lightweight notification. Consumers fetch full records from the
// ledger by ID.
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	GroupID    string    `json:"group_id,omitempty"`
	ExpenseIDs []string  `json:"expense_ids,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToJSON serializes the event.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Publish failures never undo a ledger mutation.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
