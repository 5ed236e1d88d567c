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

// GetGroup retrieves a group by ID, including its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	var (
		total     string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, total_expenses, created_by, created_at, version FROM groups WHERE id = ?",
		id,
	).Scan(&group.ID, &group.Name, &group.Description, &total, &group.CreatedBy, &createdAt, &group.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("group", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.TotalExpenses, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("failed to parse group total %q: %w", total, err)
	}
	group.CreatedAt = fromUnix(createdAt)

	members, err := loadChildren(ctx, s.db, "group_members", "group_id", "user_id", []string{id})
	if err != nil {
		return nil, err
	}
	group.Members = members[id]

	return group, nil
}

// putGroup inserts (Version 0) or compare-and-swap updates a group.
func putGroup(ctx context.Context, tx *sql.Tx, g *models.Group) error {
	if g.Version == 0 {
		if err := insertGuard(ctx, tx, "groups", "group", g.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO groups (id, name, description, total_expenses, created_by, created_at, version)
			 VALUES (?, ?, ?, ?, ?, ?, 1)`,
			g.ID, g.Name, g.Description, g.TotalExpenses.String(), g.CreatedBy, toUnix(g.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE groups SET name = ?, description = ?, total_expenses = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			g.Name, g.Description, g.TotalExpenses.String(), g.ID, g.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		if err := casUpdate(ctx, tx, res, "groups", "group", g.ID); err != nil {
			return err
		}
	}

	return replaceChildren(ctx, tx, "group_members", "group_id", "user_id", g.ID, g.Members)
}
