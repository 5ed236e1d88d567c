// Package memory provides an in-memory implementation of the storage.Store interface.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps every entity in maps guarded by a single RWMutex.
// Values are cloned on the way in and out.
type Store struct {
	mu sync.RWMutex

	expenses    map[string]*models.Expense
	users       map[string]*models.User
	emails      map[string]string // email -> user ID
	groups      map[string]*models.Group
	settlements map[string]*models.Settlement
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		expenses:    make(map[string]*models.Expense),
		users:       make(map[string]*models.User),
		emails:      make(map[string]string),
		groups:      make(map[string]*models.Group),
		settlements: make(map[string]*models.Settlement),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) GetExpense(_ context.Context, id string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok {
		return nil, apperrors.NotFound("expense", id)
	}
	return e.Clone(), nil
}

func (s *Store) FindExpensesByIDs(_ context.Context, ids []string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Expense, 0, len(ids))
	for _, id := range ids {
		e, ok := s.expenses[id]
		if !ok {
			return nil, apperrors.NotFound("expense", id)
		}
		out = append(out, e.Clone())
	}
	return out, nil
}

func (s *Store) FindExpensesByGroup(_ context.Context, groupID string) ([]*models.Expense, error) {
	return s.findExpenses(func(e *models.Expense) bool { return e.GroupID == groupID }), nil
}

func (s *Store) FindExpensesByParticipant(_ context.Context, userID string) ([]*models.Expense, error) {
	return s.findExpenses(func(e *models.Expense) bool { return e.HasParticipant(userID) }), nil
}

func (s *Store) findExpenses(match func(*models.Expense) bool) []*models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Expense
	for _, e := range s.expenses {
		if match(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return u.Clone(), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.NotFound("user", email)
	}
	return s.users[id].Clone(), nil
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Clone()
		}
	}
	return out, nil
}

func (s *Store) GetGroup(_ context.Context, id string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, apperrors.NotFound("group", id)
	}
	return g.Clone(), nil
}

func (s *Store) ListSettlementsByUser(_ context.Context, userID string) ([]*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Settlement
	for _, st := range s.settlements {
		if st.UserID == userID {
			out = append(out, st.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ApplyMutation checks every version first and only then writes, so a failed
// check leaves the store untouched.
func (s *Store) ApplyMutation(_ context.Context, m storage.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range m.Expenses {
		if err := checkVersion("expense", e.ID, e.Version, s.expenses[e.ID] != nil, func() int64 { return s.expenses[e.ID].Version }); err != nil {
			return err
		}
	}
	for _, u := range m.Users {
		if err := checkVersion("user", u.ID, u.Version, s.users[u.ID] != nil, func() int64 { return s.users[u.ID].Version }); err != nil {
			return err
		}
		if owner, taken := s.emails[strings.ToLower(u.Email)]; taken && owner != u.ID {
			return fmt.Errorf("user email %q: %w", u.Email, apperrors.ErrAlreadyExists)
		}
	}
	for _, g := range m.Groups {
		if err := checkVersion("group", g.ID, g.Version, s.groups[g.ID] != nil, func() int64 { return s.groups[g.ID].Version }); err != nil {
			return err
		}
	}
	for _, st := range m.Settlements {
		if _, exists := s.settlements[st.ID]; exists {
			return fmt.Errorf("settlement %q: %w", st.ID, apperrors.ErrAlreadyExists)
		}
	}

	for _, e := range m.Expenses {
		e.Version++
		s.expenses[e.ID] = e.Clone()
	}
	for _, u := range m.Users {
		u.Version++
		s.users[u.ID] = u.Clone()
		s.emails[strings.ToLower(u.Email)] = u.ID
	}
	for _, g := range m.Groups {
		g.Version++
		s.groups[g.ID] = g.Clone()
	}
	for _, st := range m.Settlements {
		s.settlements[st.ID] = st.Clone()
	}

	return nil
}

func checkVersion(kind, id string, version int64, exists bool, stored func() int64) error {
	if version == 0 {
		if exists {
			return fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrAlreadyExists)
		}
		return nil
	}
	if !exists {
		return apperrors.NotFound(kind, id)
	}
	if current := stored(); current != version {
		return fmt.Errorf("%s %q at version %d, have %d: %w", kind, id, current, version, apperrors.ErrMutationConflict)
	}
	return nil
}
