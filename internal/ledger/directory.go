package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

// GetUserByEmail returns a user by case-insensitive email.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// CreateUser stores a new user, assigning an ID when empty.
// Returns an error wrapping apperrors.ErrAlreadyExists for a taken email.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = s.newID()
	}
	user.Version = 0
	if err := s.store.ApplyMutation(ctx, storage.Mutation{Users: []*models.User{user}}); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("User created", "user_id", user.ID)
	return nil
}

// SetPasswordHash attaches a password hash to a user that was bootstrapped by
// email only. Users that already have a password are left unchanged and
// ErrAlreadyExists is returned.
func (s *Service) SetPasswordHash(ctx context.Context, userID, hash string) (*models.User, error) {
	var user *models.User
	err := s.withRetry(ctx, "set_password", func(ctx context.Context) error {
		u, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.PasswordHash != "" {
			return fmt.Errorf("password for user %q: %w", userID, apperrors.ErrAlreadyExists)
		}
		u.PasswordHash = hash
		user = u
		return s.store.ApplyMutation(ctx, storage.Mutation{Users: []*models.User{u}})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureUser returns the user with email, creating it on first sight.
// Users are created once per unique email and never deleted.
func (s *Service) EnsureUser(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.ValidationError{Field: "email", Message: "is required"}
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, apperrors.ValidationError{Field: "email", Message: "must be a valid email address"}
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	user = models.NewUser(email, "", "")
	user.CreatedAt = s.now()
	if err := s.CreateUser(ctx, user); err != nil {
		// Lost a race against another bootstrap of the same email
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return s.store.GetUserByEmail(ctx, email)
		}
		return nil, err
	}
	return user, nil
}

// CreateGroup creates a group owned by creatorID. Members are resolved by
// email through EnsureUser; the creator is always a member.
func (s *Service) CreateGroup(ctx context.Context, creatorID, name, description string, memberEmails []string) (_ *models.Group, err error) {
	defer func() { metrics.ObserveOperation("create_group", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ValidationError{Field: "name", Message: "is required"}
	}
	if _, err := s.store.GetUser(ctx, creatorID); err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}

	memberIDs := []string{creatorID}
	for _, email := range memberEmails {
		u, err := s.EnsureUser(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve member %q: %w", email, err)
		}
		if !slices.Contains(memberIDs, u.ID) {
			memberIDs = append(memberIDs, u.ID)
		}
	}

	group := &models.Group{
		ID:            s.newID(),
		Name:          name,
		Description:   description,
		Members:       memberIDs,
		TotalExpenses: decimal.Zero,
		CreatedBy:     creatorID,
		CreatedAt:     s.now(),
	}

	err = s.withRetry(ctx, "create_group", func(ctx context.Context) error {
		group.Version = 0
		users, err := s.store.GetUsersByIDs(ctx, memberIDs)
		if err != nil {
			return err
		}
		m := storage.Mutation{Groups: []*models.Group{group}}
		for _, id := range memberIDs {
			u, ok := users[id]
			if !ok {
				return apperrors.NotFound("user", id)
			}
			u.Groups = append(u.Groups, group.ID)
			m.Users = append(m.Users, u)
		}
		return s.store.ApplyMutation(ctx, m)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	slog.Info("Group created", "group_id", group.ID, "members", len(group.Members))
	s.publish(ctx, events.Event{Type: events.GroupCreated, UserID: creatorID, GroupID: group.ID})
	return group.Clone(), nil
}

// GetGroup returns a group by ID.
func (s *Service) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// JoinGroup adds userID to a group. Joining a group twice is a no-op.
func (s *Service) JoinGroup(ctx context.Context, userID, groupID string) (_ *models.Group, err error) {
	defer func() { metrics.ObserveOperation("join_group", err) }()

	var (
		group  *models.Group
		joined bool
	)
	err = s.withRetry(ctx, "join_group", func(ctx context.Context) error {
		g, err := s.store.GetGroup(ctx, groupID)
		if err != nil {
			return err
		}
		u, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		group, joined = g, false
		if g.HasMember(userID) {
			return nil
		}
		g.Members = append(g.Members, userID)
		if !slices.Contains(u.Groups, groupID) {
			u.Groups = append(u.Groups, groupID)
		}
		joined = true
		return s.store.ApplyMutation(ctx, storage.Mutation{
			Groups: []*models.Group{g},
			Users:  []*models.User{u},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	if joined {
		slog.Info("User joined group", "group_id", groupID, "user_id", userID)
		s.publish(ctx, events.Event{Type: events.GroupJoined, UserID: userID, GroupID: groupID})
	}
	return group, nil
}

// ListUserGroups returns the groups userID belongs to, in join order.
func (s *Service) ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	groups := make([]*models.Group, 0, len(user.Groups))
	for _, id := range user.Groups {
		g, err := s.store.GetGroup(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get group %s: %w", id, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}
