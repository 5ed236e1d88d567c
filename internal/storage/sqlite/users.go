package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
)

const userColumns = "id, email, name, password_hash, created_at, version"

// GetUser retrieves a user by their ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	if err := s.attachUserLinks(ctx, []*models.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := s.attachUserLinks(ctx, []*models.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUsersByIDs retrieves multiple users by their IDs.
// Returns a map of user ID to User object.
// Users that don't exist are omitted from the result.
func (s *SQLiteStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User)
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id IN ("+placeholders(len(ids))+")",
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}

	var list []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	rows.Close()

	if err := s.attachUserLinks(ctx, list); err != nil {
		return nil, err
	}
	for _, u := range list {
		users[u.ID] = u
	}
	return users, nil
}

func (s *SQLiteStore) attachUserLinks(ctx context.Context, users []*models.User) error {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	groups, err := loadChildren(ctx, s.db, "user_groups", "user_id", "group_id", ids)
	if err != nil {
		return err
	}
	expenses, err := loadChildren(ctx, s.db, "user_expenses", "user_id", "expense_id", ids)
	if err != nil {
		return err
	}

	for _, u := range users {
		u.Groups = groups[u.ID]
		u.ExpenseIDs = expenses[u.ID]
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &createdAt, &user.Version); err != nil {
		return nil, err
	}
	user.CreatedAt = fromUnix(createdAt)
	return user, nil
}

// putUser inserts (Version 0) or compare-and-swap updates a user.
func putUser(ctx context.Context, tx *sql.Tx, u *models.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))

	if u.Version == 0 {
		if err := insertGuard(ctx, tx, "users", "user", u.ID); err != nil {
			return err
		}
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email = ?", email).Scan(&one)
		if err == nil {
			return fmt.Errorf("user email %q: %w", email, apperrors.ErrAlreadyExists)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check user email: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, 1)",
			u.ID, email, u.Name, u.PasswordHash, toUnix(u.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET email = ?, name = ?, password_hash = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			email, u.Name, u.PasswordHash, u.ID, u.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if err := casUpdate(ctx, tx, res, "users", "user", u.ID); err != nil {
			return err
		}
	}

	if err := replaceChildren(ctx, tx, "user_groups", "user_id", "group_id", u.ID, u.Groups); err != nil {
		return err
	}
	return replaceChildren(ctx, tx, "user_expenses", "user_id", "expense_id", u.ID, u.ExpenseIDs)
}
