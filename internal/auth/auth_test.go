package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

func newAuthenticator() (*PasswordAuthenticator, *ledger.Service) {
	svc := ledger.New(memory.New())
	a := NewPasswordAuthenticator(svc)
	a.cost = bcrypt.MinCost
	return a, svc
}

func TestPasswordAuthenticator_Register(t *testing.T) {
	ctx := context.Background()
	a, svc := newAuthenticator()

	user, err := a.Register(ctx, " Alice@Example.com", "Alice", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"duplicate email", "alice@example.com", "password123", ErrEmailExists},
		{"duplicate email other case", "ALICE@example.com", "password123", ErrEmailExists},
		{"weak password", "bob@example.com", "short", ErrWeakPassword},
		{"bad email", "bob", "password123", ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.email, "", tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("claims a user bootstrapped by email", func(t *testing.T) {
		bootstrapped, err := svc.EnsureUser(ctx, "carol@example.com")
		require.NoError(t, err)

		_, err = a.Authenticate(ctx, "carol@example.com", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		claimed, err := a.Register(ctx, "carol@example.com", "Carol", "password123")
		require.NoError(t, err)
		assert.Equal(t, bootstrapped.ID, claimed.ID)

		got, err := a.Authenticate(ctx, "carol@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, bootstrapped.ID, got.ID)
	})
}

func TestPasswordAuthenticator_Authenticate(t *testing.T) {
	ctx := context.Background()
	a, _ := newAuthenticator()

	registered, err := a.Register(ctx, "alice@example.com", "", "password123")
	require.NoError(t, err)

	got, err := a.Authenticate(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, got.ID)

	_, err = a.Authenticate(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com"}

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "alice@example.com", claims.Email)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTManager("other-secret", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTManager("test-secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "user-1"},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.Validate(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
