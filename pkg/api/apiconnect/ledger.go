package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService.
const LedgerServiceName = "splitledger.v1.LedgerService"

const (
	LedgerServiceGetUserBalancesProcedure    = "/splitledger.v1.LedgerService/GetUserBalances"
	LedgerServiceGetGroupBalancesProcedure   = "/splitledger.v1.LedgerService/GetGroupBalances"
	LedgerServiceRecordExpenseProcedure      = "/splitledger.v1.LedgerService/RecordExpense"
	LedgerServiceRemoveParticipantProcedure  = "/splitledger.v1.LedgerService/RemoveParticipant"
	LedgerServiceSettleExpenseProcedure      = "/splitledger.v1.LedgerService/SettleExpense"
	LedgerServiceGetExpenseProcedure         = "/splitledger.v1.LedgerService/GetExpense"
	LedgerServiceListRecentExpensesProcedure = "/splitledger.v1.LedgerService/ListRecentExpenses"
	LedgerServiceListSettlementsProcedure    = "/splitledger.v1.LedgerService/ListSettlements"
)

// LedgerServiceHandler is implemented by the server side of the LedgerService.
type LedgerServiceHandler interface {
	GetUserBalances(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.BalancesResponse], error)
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.BalancesResponse], error)
	RecordExpense(context.Context, *connect.Request[api.RecordExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	RemoveParticipant(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.RemoveParticipantResponse], error)
	SettleExpense(context.Context, *connect.Request[api.SettleExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error)
	ListRecentExpenses(context.Context, *connect.Request[api.ListRecentExpensesRequest]) (*connect.Response[api.ListRecentExpensesResponse], error)
	ListSettlements(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListSettlementsResponse], error)
}

// NewLedgerServiceHandler returns the mount path and handler for svc.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serve(LedgerServiceName, map[string]http.Handler{
		LedgerServiceGetUserBalancesProcedure:    connect.NewUnaryHandler(LedgerServiceGetUserBalancesProcedure, svc.GetUserBalances, opts...),
		LedgerServiceGetGroupBalancesProcedure:   connect.NewUnaryHandler(LedgerServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...),
		LedgerServiceRecordExpenseProcedure:      connect.NewUnaryHandler(LedgerServiceRecordExpenseProcedure, svc.RecordExpense, opts...),
		LedgerServiceRemoveParticipantProcedure:  connect.NewUnaryHandler(LedgerServiceRemoveParticipantProcedure, svc.RemoveParticipant, opts...),
		LedgerServiceSettleExpenseProcedure:      connect.NewUnaryHandler(LedgerServiceSettleExpenseProcedure, svc.SettleExpense, opts...),
		LedgerServiceGetExpenseProcedure:         connect.NewUnaryHandler(LedgerServiceGetExpenseProcedure, svc.GetExpense, opts...),
		LedgerServiceListRecentExpensesProcedure: connect.NewUnaryHandler(LedgerServiceListRecentExpensesProcedure, svc.ListRecentExpenses, opts...),
		LedgerServiceListSettlementsProcedure:    connect.NewUnaryHandler(LedgerServiceListSettlementsProcedure, svc.ListSettlements, opts...),
	})
}

// LedgerServiceClient calls a remote LedgerService.
type LedgerServiceClient struct {
	getUserBalances    *connect.Client[emptypb.Empty, api.BalancesResponse]
	getGroupBalances   *connect.Client[api.GetGroupBalancesRequest, api.BalancesResponse]
	recordExpense      *connect.Client[api.RecordExpenseRequest, api.ExpenseResponse]
	removeParticipant  *connect.Client[emptypb.Empty, api.RemoveParticipantResponse]
	settleExpense      *connect.Client[api.SettleExpenseRequest, api.ExpenseResponse]
	getExpense         *connect.Client[api.GetExpenseRequest, api.ExpenseResponse]
	listRecentExpenses *connect.Client[api.ListRecentExpensesRequest, api.ListRecentExpensesResponse]
	listSettlements    *connect.Client[emptypb.Empty, api.ListSettlementsResponse]
}

// NewLedgerServiceClient creates a client for the LedgerService at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &LedgerServiceClient{
		getUserBalances:    connect.NewClient[emptypb.Empty, api.BalancesResponse](httpClient, baseURL+LedgerServiceGetUserBalancesProcedure, opts...),
		getGroupBalances:   connect.NewClient[api.GetGroupBalancesRequest, api.BalancesResponse](httpClient, baseURL+LedgerServiceGetGroupBalancesProcedure, opts...),
		recordExpense:      connect.NewClient[api.RecordExpenseRequest, api.ExpenseResponse](httpClient, baseURL+LedgerServiceRecordExpenseProcedure, opts...),
		removeParticipant:  connect.NewClient[emptypb.Empty, api.RemoveParticipantResponse](httpClient, baseURL+LedgerServiceRemoveParticipantProcedure, opts...),
		settleExpense:      connect.NewClient[api.SettleExpenseRequest, api.ExpenseResponse](httpClient, baseURL+LedgerServiceSettleExpenseProcedure, opts...),
		getExpense:         connect.NewClient[api.GetExpenseRequest, api.ExpenseResponse](httpClient, baseURL+LedgerServiceGetExpenseProcedure, opts...),
		listRecentExpenses: connect.NewClient[api.ListRecentExpensesRequest, api.ListRecentExpensesResponse](httpClient, baseURL+LedgerServiceListRecentExpensesProcedure, opts...),
		listSettlements:    connect.NewClient[emptypb.Empty, api.ListSettlementsResponse](httpClient, baseURL+LedgerServiceListSettlementsProcedure, opts...),
	}
}

func (c *LedgerServiceClient) GetUserBalances(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.BalancesResponse], error) {
	return c.getUserBalances.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.BalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordExpense(ctx context.Context, req *connect.Request[api.RecordExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.recordExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.RemoveParticipantResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) SettleExpense(ctx context.Context, req *connect.Request[api.SettleExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.settleExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListRecentExpenses(ctx context.Context, req *connect.Request[api.ListRecentExpensesRequest]) (*connect.Response[api.ListRecentExpensesResponse], error) {
	return c.listRecentExpenses.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListSettlements(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}
