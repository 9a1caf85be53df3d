// Package rpc exposes the ledger operations as a Connect service.
//
// Requests and responses use the same JSON shapes as the REST API. Clients
// call POST /splitledger.v1.LedgerService/<Method> with Content-Type
// application/json, or use Client.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
)

const ServiceName = "splitledger.v1.LedgerService"

const (
	CreateExpenseProcedure    = "/" + ServiceName + "/CreateExpense"
	GetGroupBalancesProcedure = "/" + ServiceName + "/GetGroupBalances"
	SettleBalanceProcedure    = "/" + ServiceName + "/SettleBalance"
	SimplifyDebtsProcedure    = "/" + ServiceName + "/SimplifyDebts"
)

var errInternal = errors.New("internal error")

// LedgerServer implements the LedgerService procedures.
type LedgerServer struct {
	svc *service.Services
}

func NewLedgerServer(svc *service.Services) *LedgerServer {
	return &LedgerServer{svc: svc}
}

// NewHandler returns the path prefix to mount and the handler serving every
// LedgerService procedure.
func NewHandler(svc *service.Services, opts ...connect.HandlerOption) (string, http.Handler) {
	s := NewLedgerServer(svc)
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateExpenseProcedure, connect.NewUnaryHandler(CreateExpenseProcedure, s.CreateExpense, opts...))
	mux.Handle(GetGroupBalancesProcedure, connect.NewUnaryHandler(GetGroupBalancesProcedure, s.GetGroupBalances, opts...))
	mux.Handle(SettleBalanceProcedure, connect.NewUnaryHandler(SettleBalanceProcedure, s.SettleBalance, opts...))
	mux.Handle(SimplifyDebtsProcedure, connect.NewUnaryHandler(SimplifyDebtsProcedure, s.SimplifyDebts, opts...))
	return "/" + ServiceName + "/", mux
}

func (s *LedgerServer) CreateExpense(ctx context.Context, req *connect.Request[contracts.CreateExpenseRequest]) (*connect.Response[models.Expense], error) {
	expense, err := s.svc.Expenses.CreateExpense(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(expense), nil
}

func (s *LedgerServer) GetGroupBalances(ctx context.Context, req *connect.Request[contracts.GroupRequest]) (*connect.Response[contracts.GroupBalancesResponse], error) {
	balances, err := s.svc.Balances.GroupBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&contracts.GroupBalancesResponse{Balances: balances}), nil
}

func (s *LedgerServer) SettleBalance(ctx context.Context, req *connect.Request[contracts.SettleRequest]) (*connect.Response[models.SettlementResult], error) {
	result, err := s.svc.Settlements.Settle(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(result), nil
}

func (s *LedgerServer) SimplifyDebts(ctx context.Context, req *connect.Request[contracts.GroupRequest]) (*connect.Response[contracts.SimplifyDebtsResponse], error) {
	transfers, err := s.svc.Balances.SimplifiedDebts(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return connect.NewResponse(&contracts.SimplifyDebtsResponse{Transfers: transfers}), nil
}

// toConnectError keeps client-facing messages for classified errors and
// hides everything else behind a generic internal error.
func toConnectError(ctx context.Context, err error) error {
	switch {
	case apperr.IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case apperr.IsNotFound(err):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		slog.ErrorContext(ctx, "RPC failed", "error", err)
		return connect.NewError(connect.CodeInternal, errInternal)
	}
}
