package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

type testServer struct {
	ledger *apiconnect.LedgerServiceClient
	groups *apiconnect.GroupServiceClient
	auth   *apiconnect.AuthServiceClient
}

// setupTestServer serves all three services over a temp SQLite database
// with the production interceptor chain.
func setupTestServer(t *testing.T, authRate string) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l := ledger.New(store)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiter, err := middleware.NewIPLimiter(authRate)
	require.NoError(t, err)
	interceptors := connect.WithInterceptors(
		middleware.RateLimit(limiter, apiconnect.PublicProcedures...),
		middleware.RequireAuth(jwtManager, apiconnect.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewLedgerServiceHandler(NewLedgerService(l), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(l), interceptors))
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(auth.NewPasswordAuthenticator(l), jwtManager, l, logger), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		ledger: apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL),
		groups: apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		auth:   apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
	}
}

type session struct {
	userID string
	token  string
}

func register(t *testing.T, ts *testServer, email, name string) session {
	t.Helper()
	resp, err := ts.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: name,
		Password:    "password123",
	}))
	require.NoError(t, err)
	return session{userID: resp.Msg.User.ID, token: resp.Msg.Token}
}

func authed[T any](s session, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+s.token)
	return req
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	ts := setupTestServer(t, "1000-M")

	alice := register(t, ts, "alice@example.com", "Alice")
	assert.NotEmpty(t, alice.token)

	t.Run("login returns a working token", func(t *testing.T) {
		resp, err := ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "alice@example.com",
			Password: "password123",
		}))
		require.NoError(t, err)

		me, err := ts.auth.GetCurrentUser(ctx, authed(session{token: resp.Msg.Token}, &emptypb.Empty{}))
		require.NoError(t, err)
		assert.Equal(t, alice.userID, me.Msg.User.ID)
		assert.Equal(t, "Alice", me.Msg.User.Name)
	})

	tests := []struct {
		name     string
		call     func() error
		wantCode connect.Code
	}{
		{
			name: "duplicate registration",
			call: func() error {
				_, err := ts.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{Email: "alice@example.com", Password: "password123"}))
				return err
			},
			wantCode: connect.CodeAlreadyExists,
		},
		{
			name: "weak password",
			call: func() error {
				_, err := ts.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{Email: "bob@example.com", Password: "short"}))
				return err
			},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name: "wrong password",
			call: func() error {
				_, err := ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "alice@example.com", Password: "nope-nope"}))
				return err
			},
			wantCode: connect.CodeUnauthenticated,
		},
		{
			name: "missing token",
			call: func() error {
				_, err := ts.auth.GetCurrentUser(ctx, connect.NewRequest(&emptypb.Empty{}))
				return err
			},
			wantCode: connect.CodeUnauthenticated,
		},
		{
			name: "forged token",
			call: func() error {
				_, err := ts.ledger.GetUserBalances(ctx, authed(session{token: "forged"}, &emptypb.Empty{}))
				return err
			},
			wantCode: connect.CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, connect.CodeOf(err))
		})
	}
}

func TestLedgerService(t *testing.T) {
	ctx := context.Background()
	ts := setupTestServer(t, "1000-M")

	alice := register(t, ts, "alice@example.com", "Alice")

	// Bob and Carol are invited by email before they sign up
	created, err := ts.groups.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{
		Name:         "Trip",
		MemberEmails: []string{"bob@example.com", "carol@example.com"},
	}))
	require.NoError(t, err)
	group := created.Msg.Group
	require.Len(t, group.Members, 3)
	bobID, carolID := group.Members[1], group.Members[2]

	bob := register(t, ts, "bob@example.com", "Bob")
	assert.Equal(t, bobID, bob.userID)

	recorded, err := ts.ledger.RecordExpense(ctx, authed(alice, &api.RecordExpenseRequest{
		GroupID:      group.ID,
		Description:  "Dinner",
		Amount:       "30.00",
		PaidBy:       alice.userID,
		Participants: []string{alice.userID, bobID, carolID},
	}))
	require.NoError(t, err)
	expense := recorded.Msg.Expense
	assert.Equal(t, "equal", expense.SplitType)
	assert.Equal(t, alice.userID, expense.CreatedBy)

	t.Run("user balances", func(t *testing.T) {
		resp, err := ts.ledger.GetUserBalances(ctx, authed(alice, &emptypb.Empty{}))
		require.NoError(t, err)
		assert.ElementsMatch(t, []api.Balance{
			{UserID: bobID, Name: "bob", Amount: "10.00", Direction: "owes_you"},
			{UserID: carolID, Name: "carol", Amount: "10.00", Direction: "owes_you"},
		}, resp.Msg.Balances)
		assert.Equal(t, "20.00", resp.Msg.TotalOwedToYou)
		assert.Equal(t, "0.00", resp.Msg.TotalYouOwe)

		resp, err = ts.ledger.GetUserBalances(ctx, authed(bob, &emptypb.Empty{}))
		require.NoError(t, err)
		assert.Equal(t, []api.Balance{
			{UserID: alice.userID, Name: "Alice", Amount: "10.00", Direction: "you_owe"},
		}, resp.Msg.Balances)
	})

	t.Run("group balances", func(t *testing.T) {
		resp, err := ts.ledger.GetGroupBalances(ctx, authed(bob, &api.GetGroupBalancesRequest{GroupID: group.ID}))
		require.NoError(t, err)
		assert.Len(t, resp.Msg.Balances, 2)
	})

	t.Run("recent expenses", func(t *testing.T) {
		resp, err := ts.ledger.ListRecentExpenses(ctx, authed(bob, &api.ListRecentExpensesRequest{}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Expenses, 1)
		assert.Equal(t, api.ExpenseSummary{
			ID:          expense.ID,
			Description: "Dinner",
			Amount:      "30.00",
			Date:        "Today",
			PaidBy:      "Alice",
		}, resp.Msg.Expenses[0])

		resp, err = ts.ledger.ListRecentExpenses(ctx, authed(alice, &api.ListRecentExpensesRequest{}))
		require.NoError(t, err)
		assert.Equal(t, "You", resp.Msg.Expenses[0].PaidBy)
	})

	t.Run("remove participant", func(t *testing.T) {
		resp, err := ts.ledger.RemoveParticipant(ctx, authed(bob, &emptypb.Empty{}))
		require.NoError(t, err)
		require.NotNil(t, resp.Msg.Settlement)
		assert.Equal(t, []string{expense.ID}, resp.Msg.Settlement.ExpenseIDs)

		balances, err := ts.ledger.GetUserBalances(ctx, authed(alice, &emptypb.Empty{}))
		require.NoError(t, err)
		assert.Equal(t, []api.Balance{
			{UserID: carolID, Name: "carol", Amount: "15.00", Direction: "owes_you"},
		}, balances.Msg.Balances)

		again, err := ts.ledger.RemoveParticipant(ctx, authed(bob, &emptypb.Empty{}))
		require.NoError(t, err)
		assert.Nil(t, again.Msg.Settlement)

		history, err := ts.ledger.ListSettlements(ctx, authed(bob, &emptypb.Empty{}))
		require.NoError(t, err)
		assert.Len(t, history.Msg.Settlements, 1)
	})

	t.Run("settle expense", func(t *testing.T) {
		_, err := ts.ledger.SettleExpense(ctx, authed(bob, &api.SettleExpenseRequest{ExpenseID: expense.ID}))
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

		settled, err := ts.ledger.SettleExpense(ctx, authed(alice, &api.SettleExpenseRequest{ExpenseID: expense.ID}))
		require.NoError(t, err)
		assert.True(t, settled.Msg.Expense.IsSettled)

		balances, err := ts.ledger.GetUserBalances(ctx, authed(alice, &emptypb.Empty{}))
		require.NoError(t, err)
		assert.Empty(t, balances.Msg.Balances)

		got, err := ts.ledger.GetExpense(ctx, authed(alice, &api.GetExpenseRequest{ExpenseID: expense.ID}))
		require.NoError(t, err)
		assert.True(t, got.Msg.Expense.IsSettled)
	})

	t.Run("errors map to codes", func(t *testing.T) {
		outsider := register(t, ts, "erin@example.com", "Erin")
		valid := func() *api.RecordExpenseRequest {
			return &api.RecordExpenseRequest{
				GroupID:      group.ID,
				Description:  "Taxi",
				Amount:       "12.50",
				PaidBy:       alice.userID,
				Participants: []string{alice.userID, bobID},
			}
		}

		tests := []struct {
			name     string
			session  session
			mutate   func(r *api.RecordExpenseRequest)
			wantCode connect.Code
		}{
			{"unknown group", alice, func(r *api.RecordExpenseRequest) { r.GroupID = "missing" }, connect.CodeNotFound},
			{"malformed amount", alice, func(r *api.RecordExpenseRequest) { r.Amount = "twelve" }, connect.CodeInvalidArgument},
			{"negative amount", alice, func(r *api.RecordExpenseRequest) { r.Amount = "-1" }, connect.CodeInvalidArgument},
			{"payer outside participants", alice, func(r *api.RecordExpenseRequest) { r.PaidBy = carolID }, connect.CodeInvalidArgument},
			{"unsupported split", alice, func(r *api.RecordExpenseRequest) { r.SplitType = "percentage" }, connect.CodeUnimplemented},
			{"caller not in group", outsider, func(r *api.RecordExpenseRequest) {}, connect.CodePermissionDenied},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := valid()
				tt.mutate(req)
				_, err := ts.ledger.RecordExpense(ctx, authed(tt.session, req))
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
			})
		}

		_, err := ts.ledger.GetGroupBalances(ctx, authed(outsider, &api.GetGroupBalancesRequest{GroupID: group.ID}))
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

		_, err = ts.ledger.GetExpense(ctx, authed(alice, &api.GetExpenseRequest{ExpenseID: "missing"}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestGroupService(t *testing.T) {
	ctx := context.Background()
	ts := setupTestServer(t, "1000-M")

	alice := register(t, ts, "alice@example.com", "Alice")
	dave := register(t, ts, "dave@example.com", "Dave")

	created, err := ts.groups.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{Name: "Roommates"}))
	require.NoError(t, err)
	groupID := created.Msg.Group.ID
	assert.Equal(t, "0.00", created.Msg.Group.TotalExpenses)

	_, err = ts.groups.GetGroup(ctx, authed(dave, &api.GetGroupRequest{GroupID: groupID}))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	joined, err := ts.groups.JoinGroup(ctx, authed(dave, &api.JoinGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Contains(t, joined.Msg.Group.Members, dave.userID)

	got, err := ts.groups.GetGroup(ctx, authed(dave, &api.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Equal(t, "Roommates", got.Msg.Group.Name)

	list, err := ts.groups.ListGroups(ctx, authed(dave, &emptypb.Empty{}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Groups, 1)
	assert.Equal(t, groupID, list.Msg.Groups[0].ID)

	_, err = ts.groups.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{Name: ""}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = ts.groups.JoinGroup(ctx, authed(dave, &api.JoinGroupRequest{GroupID: "missing"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestAuthRateLimit(t *testing.T) {
	ctx := context.Background()
	ts := setupTestServer(t, "3-M")

	register(t, ts, "alice@example.com", "Alice")

	login := func() error {
		_, err := ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "alice@example.com", Password: "password123"}))
		return err
	}
	require.NoError(t, login())
	require.NoError(t, login())

	err := login()
	require.Error(t, err)
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))
}

func TestConnectError(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{apperrors.NotFound("expense", "e1"), connect.CodeNotFound},
		{apperrors.ValidationError{Field: "amount", Message: "must be positive"}, connect.CodeInvalidArgument},
		{fmt.Errorf("split: %w", apperrors.ErrUnsupportedSplitKind), connect.CodeUnimplemented},
		{fmt.Errorf("gave up: %w", apperrors.ErrMutationConflict), connect.CodeAborted},
		{apperrors.ErrAlreadyExists, connect.CodeAlreadyExists},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("disk on fire"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, connectError(tt.err).Code())
		})
	}
}
