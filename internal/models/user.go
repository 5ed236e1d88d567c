package models

import (
	"slices"
	"strings"
	"time"
)

// User represents a participant. Users are created once per unique email and
// never deleted.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique).
	Email string

	// Name is the display name shown to counterparties.
	Name string

	// PasswordHash is the bcrypt hash of the user's password. Empty for users
	// bootstrapped by email only.
	PasswordHash string

	// Groups are the IDs of the groups the user belongs to.
	Groups []string

	// ExpenseIDs are the IDs of the expenses the user participates in.
	// Grows on new expenses, shrinks when the user settles out.
	ExpenseIDs []string

	// CreatedAt is when the user was created.
	CreatedAt time.Time

	// Version is the optimistic-concurrency token. 0 means not yet persisted.
	Version int64
}

// NewUser creates an unsaved user. An empty name defaults to the local part
// of the email.
func NewUser(email, name, passwordHash string) *User {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.Groups = slices.Clone(u.Groups)
	c.ExpenseIDs = slices.Clone(u.ExpenseIDs)
	return &c
}
