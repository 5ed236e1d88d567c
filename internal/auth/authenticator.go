// Package auth issues and checks credentials for ledger users.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator verifies who is calling the ledger. PasswordAuthenticator is
// the only implementation.
type Authenticator interface {
	// Register creates an account for email, or claims the user created for
	// that email when someone added them to a group first.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user whose credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials that are too weak to store.
	ValidateCredential(credential string) error
}

var _ Authenticator = (*PasswordAuthenticator)(nil)
