package api

import "time"

// Balance is one consolidated balance row. Amount is a decimal string with
// two places; Direction is "owes_you" or "you_owe".
type Balance struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

type BalancesResponse struct {
	Balances       []Balance `json:"balances"`
	TotalOwedToYou string    `json:"total_owed_to_you"`
	TotalYouOwe    string    `json:"total_you_owe"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

// Expense mirrors models.Expense on the wire. Amount is a decimal string.
type Expense struct {
	ID           string    `json:"id"`
	GroupID      string    `json:"group_id"`
	Description  string    `json:"description"`
	Category     string    `json:"category,omitempty"`
	Amount       string    `json:"amount"`
	PaidBy       string    `json:"paid_by"`
	Participants []string  `json:"participants"`
	SplitType    string    `json:"split_type"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	IsSettled    bool      `json:"is_settled"`
}

// RecordExpenseRequest records an expense on behalf of the caller.
// An empty SplitType means "equal".
type RecordExpenseRequest struct {
	GroupID      string   `json:"group_id"`
	Description  string   `json:"description"`
	Category     string   `json:"category,omitempty"`
	Amount       string   `json:"amount"`
	PaidBy       string   `json:"paid_by"`
	Participants []string `json:"participants"`
	SplitType    string   `json:"split_type,omitempty"`
}

type ExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type SettleExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type Settlement struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ExpenseIDs []string  `json:"expense_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// RemoveParticipantResponse carries the settlement written, or nil when
// the caller had no open expenses to settle out of.
type RemoveParticipantResponse struct {
	Settlement *Settlement `json:"settlement,omitempty"`
}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type ListRecentExpensesRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ExpenseSummary is an expense formatted for a feed: relative Date such as
// "Yesterday" and PaidBy shown as "You", a name, or "Friend".
type ExpenseSummary struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	PaidBy      string `json:"paid_by"`
	IsSettled   bool   `json:"is_settled"`
}

type ListRecentExpensesResponse struct {
	Expenses []ExpenseSummary `json:"expenses"`
}
