package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
)

// ListSettlementsByUser retrieves all settlements of a user, newest first.
func (s *SQLiteStore) ListSettlementsByUser(ctx context.Context, userID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, created_at FROM settlements WHERE user_id = ? ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by user: %w", err)
	}

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var createdAt int64
		if err := rows.Scan(&settlement.ID, &settlement.UserID, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlement.CreatedAt = fromUnix(createdAt)
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	rows.Close()

	ids := make([]string, len(settlements))
	for i, st := range settlements {
		ids[i] = st.ID
	}
	expenses, err := loadChildren(ctx, s.db, "settlement_expenses", "settlement_id", "expense_id", ids)
	if err != nil {
		return nil, err
	}
	for _, st := range settlements {
		st.ExpenseIDs = expenses[st.ID]
	}

	return settlements, nil
}

// insertSettlement persists a settlement and the expenses it covers.
func insertSettlement(ctx context.Context, tx *sql.Tx, st *models.Settlement) error {
	if err := insertGuard(ctx, tx, "settlements", "settlement", st.ID); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO settlements (id, user_id, created_at) VALUES (?, ?, ?)",
		st.ID, st.UserID, toUnix(st.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	return replaceChildren(ctx, tx, "settlement_expenses", "settlement_id", "expense_id", st.ID, st.ExpenseIDs)
}
