// Package present turns ledger records into the short summaries shown in
// expense feeds.
package present

import (
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// ExpenseSummary is an expense as displayed to one viewer.
type ExpenseSummary struct {
	ID          string
	Description string
	Category    string
	Amount      string
	Date        string
	PaidBy      string
	IsSettled   bool
}

// FormatExpense summarizes expense for viewerID. names maps user IDs to
// display names; payers missing from it are shown as "Friend".
func FormatExpense(expense *models.Expense, viewerID string, names map[string]string, now time.Time) ExpenseSummary {
	return ExpenseSummary{
		ID:          expense.ID,
		Description: expense.Description,
		Category:    expense.Category,
		Amount:      expense.Amount.StringFixed(2),
		Date:        RelativeDate(expense.CreatedAt, now),
		PaidBy:      payerLabel(expense.PaidBy, viewerID, names),
		IsSettled:   expense.IsSettled,
	}
}

// FormatExpenses summarizes each expense in order.
func FormatExpenses(expenses []*models.Expense, viewerID string, names map[string]string, now time.Time) []ExpenseSummary {
	out := make([]ExpenseSummary, len(expenses))
	for i, e := range expenses {
		out[i] = FormatExpense(e, viewerID, names, now)
	}
	return out
}

// RelativeDate describes t relative to now by UTC calendar day: "Today",
// "Yesterday", "N days ago" within a week, then the month and day ("Jul 22").
func RelativeDate(t, now time.Time) string {
	days := calendarDays(t.UTC(), now.UTC())
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.UTC().Format("Jan 02")
	}
}

func calendarDays(from, to time.Time) int {
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func payerLabel(payerID, viewerID string, names map[string]string) string {
	if payerID == viewerID {
		return "You"
	}
	if name := names[payerID]; name != "" {
		return name
	}
	return "Friend"
}
