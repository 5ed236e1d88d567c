package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
)

const expenseColumns = "id, group_id, description, category, amount, paid_by, split_type, created_by, created_at, is_settled, version"

// GetExpense retrieves an expense by ID, including its participants.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("expense", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.attachParticipants(ctx, []*models.Expense{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// FindExpensesByIDs retrieves expenses in the requested order.
func (s *SQLiteStore) FindExpensesByIDs(ctx context.Context, ids []string) ([]*models.Expense, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id IN ("+placeholders(len(ids))+")",
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Expense, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	out := make([]*models.Expense, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, apperrors.NotFound("expense", id)
		}
		out = append(out, e)
	}
	return out, nil
}

// FindExpensesByGroup retrieves all expenses of a group, oldest first.
func (s *SQLiteStore) FindExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at, id",
		groupID,
	)
}

// FindExpensesByParticipant retrieves all expenses shared by userID, oldest first.
func (s *SQLiteStore) FindExpensesByParticipant(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+` FROM expenses
		 WHERE id IN (SELECT expense_id FROM expense_participants WHERE user_id = ?)
		 ORDER BY created_at, id`,
		userID,
	)
}

// queryExpenses runs query and attaches participants. Rows are fully read
// before participants are loaded since the pool holds a single connection.
func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if err := s.attachParticipants(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *SQLiteStore) attachParticipants(ctx context.Context, expenses []*models.Expense) error {
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}
	participants, err := loadChildren(ctx, s.db, "expense_participants", "expense_id", "user_id", ids)
	if err != nil {
		return err
	}
	for _, e := range expenses {
		e.Participants = participants[e.ID]
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var (
		amount    string
		splitType string
		createdAt int64
		settled   int
	)
	if err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Category, &amount, &e.PaidBy,
		&splitType, &e.CreatedBy, &createdAt, &settled, &e.Version); err != nil {
		return nil, err
	}

	var err error
	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	e.SplitType = models.SplitType(splitType)
	e.CreatedAt = fromUnix(createdAt)
	e.IsSettled = settled != 0
	return e, nil
}

// putExpense inserts (Version 0) or compare-and-swap updates an expense.
func putExpense(ctx context.Context, tx *sql.Tx, e *models.Expense) error {
	settled := 0
	if e.IsSettled {
		settled = 1
	}

	if e.Version == 0 {
		if err := insertGuard(ctx, tx, "expenses", "expense", e.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)",
			e.ID, e.GroupID, e.Description, e.Category, e.Amount.String(), e.PaidBy,
			string(e.SplitType), e.CreatedBy, toUnix(e.CreatedAt), settled,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET group_id = ?, description = ?, category = ?, amount = ?, paid_by = ?,
			 split_type = ?, created_by = ?, created_at = ?, is_settled = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			e.GroupID, e.Description, e.Category, e.Amount.String(), e.PaidBy,
			string(e.SplitType), e.CreatedBy, toUnix(e.CreatedAt), settled,
			e.ID, e.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if err := casUpdate(ctx, tx, res, "expenses", "expense", e.ID); err != nil {
			return err
		}
	}

	return replaceChildren(ctx, tx, "expense_participants", "expense_id", "user_id", e.ID, e.Participants)
}
