package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/present"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService on top of the ledger.
// Every call acts on behalf of the authenticated caller.
type LedgerService struct {
	ledger *ledger.Service
	now    func() time.Time
}

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService creates a new LedgerService.
func NewLedgerService(l *ledger.Service) *LedgerService {
	return &LedgerService{ledger: l, now: time.Now}
}

// GetUserBalances returns the caller's consolidated balances.
func (s *LedgerService) GetUserBalances(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.BalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	balances, err := s.ledger.GetUserBalances(ctx, userID)
	if err != nil {
		slog.Error("GetUserBalances failed", "user_id", userID, "error", err)
		return nil, connectError(err)
	}
	return connect.NewResponse(toAPIBalances(balances)), nil
}

// GetGroupBalances returns the consolidated balances of a group the caller
// belongs to.
func (s *LedgerService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.BalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.requireMember(ctx, userID, req.Msg.GroupID); err != nil {
		return nil, err
	}

	balances, err := s.ledger.GetGroupBalances(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroupBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}
	return connect.NewResponse(toAPIBalances(balances)), nil
}

// RecordExpense records an expense in a group the caller belongs to.
func (s *LedgerService) RecordExpense(ctx context.Context, req *connect.Request[api.RecordExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RecordExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"participants_count", len(req.Msg.Participants),
	)

	amount, err := decimal.NewFromString(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.requireMember(ctx, userID, req.Msg.GroupID); err != nil {
		return nil, err
	}

	expense, err := s.ledger.RecordExpense(ctx, &models.Expense{
		GroupID:      req.Msg.GroupID,
		Description:  req.Msg.Description,
		Category:     req.Msg.Category,
		Amount:       amount,
		PaidBy:       req.Msg.PaidBy,
		Participants: req.Msg.Participants,
		SplitType:    models.SplitType(req.Msg.SplitType),
		CreatedBy:    userID,
	})
	if err != nil {
		slog.Error("RecordExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// RemoveParticipant settles the caller out of every open expense they did
// not pay for.
func (s *LedgerService) RemoveParticipant(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.RemoveParticipantResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	settlement, err := s.ledger.RemoveParticipant(ctx, userID)
	if err != nil {
		slog.Error("RemoveParticipant failed", "user_id", userID, "error", err)
		return nil, connectError(err)
	}

	resp := &api.RemoveParticipantResponse{}
	if settlement != nil {
		out := toAPISettlement(settlement)
		resp.Settlement = &out
	}
	return connect.NewResponse(resp), nil
}

// SettleExpense marks an expense the caller participates in as settled.
func (s *LedgerService) SettleExpense(ctx context.Context, req *connect.Request[api.SettleExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.ledger.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, connectError(err)
	}
	if !existing.HasParticipant(userID) {
		return nil, permissionDenied("you must be a participant to settle this expense")
	}

	expense, err := s.ledger.SettleExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("SettleExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// GetExpense returns an expense, settled or not, to a participant or a
// member of its group.
func (s *LedgerService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.ledger.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, connectError(err)
	}
	if !expense.HasParticipant(userID) {
		if err := s.requireMember(ctx, userID, expense.GroupID); err != nil {
			return nil, err
		}
	}
	return connect.NewResponse(&api.ExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListRecentExpenses returns the caller's most recent expenses formatted
// for display.
func (s *LedgerService) ListRecentExpenses(ctx context.Context, req *connect.Request[api.ListRecentExpensesRequest]) (*connect.Response[api.ListRecentExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expenses, err := s.ledger.RecentExpenses(ctx, userID, req.Msg.Limit)
	if err != nil {
		return nil, connectError(err)
	}
	names, err := s.ledger.ExpenseUserNames(ctx, expenses)
	if err != nil {
		return nil, connectError(err)
	}

	summaries := present.FormatExpenses(expenses, userID, names, s.now())
	resp := &api.ListRecentExpensesResponse{Expenses: make([]api.ExpenseSummary, len(summaries))}
	for i, summary := range summaries {
		resp.Expenses[i] = toAPISummary(summary)
	}
	return connect.NewResponse(resp), nil
}

// ListSettlements returns the caller's settlement history, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	settlements, err := s.ledger.ListSettlements(ctx, userID)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &api.ListSettlementsResponse{Settlements: make([]api.Settlement, len(settlements))}
	for i, st := range settlements {
		resp.Settlements[i] = toAPISettlement(st)
	}
	return connect.NewResponse(resp), nil
}

// requireMember fails unless userID belongs to groupID.
func (s *LedgerService) requireMember(ctx context.Context, userID, groupID string) error {
	group, err := s.ledger.GetGroup(ctx, groupID)
	if err != nil {
		return connectError(err)
	}
	if !group.HasMember(userID) {
		return permissionDenied("you must be a member of this group")
	}
	return nil
}
