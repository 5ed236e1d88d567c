// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas are applied per connection by the driver
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ApplyMutation writes every entity of m in a single transaction.
// Users and groups are written before expenses so foreign keys resolve.
func (s *SQLiteStore) ApplyMutation(ctx context.Context, m storage.Mutation) error {
	if m.IsEmpty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range m.Users {
		if err := putUser(ctx, tx, u); err != nil {
			return err
		}
	}
	for _, g := range m.Groups {
		if err := putGroup(ctx, tx, g); err != nil {
			return err
		}
	}
	for _, e := range m.Expenses {
		if err := putExpense(ctx, tx, e); err != nil {
			return err
		}
	}
	for _, st := range m.Settlements {
		if err := insertSettlement(ctx, tx, st); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Versions advance only once the whole mutation is durable.
	for _, u := range m.Users {
		u.Version++
	}
	for _, g := range m.Groups {
		g.Version++
	}
	for _, e := range m.Expenses {
		e.Version++
	}

	return nil
}

// casUpdate interprets the result of an "UPDATE ... WHERE id = ? AND version = ?".
func casUpdate(ctx context.Context, q querier, res sql.Result, table, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	exists, err := rowExists(ctx, q, table, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound(kind, id)
	}
	return fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrMutationConflict)
}

// insertGuard fails with ErrAlreadyExists when id is already present.
func insertGuard(ctx context.Context, q querier, table, kind, id string) error {
	exists, err := rowExists(ctx, q, table, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrAlreadyExists)
	}
	return nil
}

func rowExists(ctx context.Context, q querier, table, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return true, nil
}

// replaceChildren rewrites an ordered (owner, value, position) link table.
func replaceChildren(ctx context.Context, q querier, table, ownerCol, valueCol, ownerID string, values []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+ownerCol+" = ?", ownerID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	for i, v := range values {
		_, err := q.ExecContext(ctx,
			"INSERT INTO "+table+" ("+ownerCol+", "+valueCol+", position) VALUES (?, ?, ?)",
			ownerID, v, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

// loadChildren reads an ordered link table for several owners at once.
func loadChildren(ctx context.Context, q querier, table, ownerCol, valueCol string, ownerIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	query := "SELECT " + ownerCol + ", " + valueCol + " FROM " + table +
		" WHERE " + ownerCol + " IN (" + placeholders(len(ownerIDs)) + ") ORDER BY " + ownerCol + ", position"
	rows, err := q.QueryContext(ctx, query, stringArgs(ownerIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner, value string
		if err := rows.Scan(&owner, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out[owner] = append(out[owner], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}
	return out, nil
}

// placeholders returns "?, ?, ..." with n placeholders for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
