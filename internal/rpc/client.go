package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/models"
)

// Client calls a LedgerService over HTTP.
type Client struct {
	createExpense    *connect.Client[contracts.CreateExpenseRequest, models.Expense]
	getGroupBalances *connect.Client[contracts.GroupRequest, contracts.GroupBalancesResponse]
	settleBalance    *connect.Client[contracts.SettleRequest, models.SettlementResult]
	simplifyDebts    *connect.Client[contracts.GroupRequest, contracts.SimplifyDebtsResponse]
}

// NewClient builds a client for the service at baseURL. The JSON codec is
// always used; opts may add interceptors or switch protocols.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &Client{
		createExpense:    connect.NewClient[contracts.CreateExpenseRequest, models.Expense](httpClient, baseURL+CreateExpenseProcedure, opts...),
		getGroupBalances: connect.NewClient[contracts.GroupRequest, contracts.GroupBalancesResponse](httpClient, baseURL+GetGroupBalancesProcedure, opts...),
		settleBalance:    connect.NewClient[contracts.SettleRequest, models.SettlementResult](httpClient, baseURL+SettleBalanceProcedure, opts...),
		simplifyDebts:    connect.NewClient[contracts.GroupRequest, contracts.SimplifyDebtsResponse](httpClient, baseURL+SimplifyDebtsProcedure, opts...),
	}
}

func (c *Client) CreateExpense(ctx context.Context, req *connect.Request[contracts.CreateExpenseRequest]) (*connect.Response[models.Expense], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *Client) GetGroupBalances(ctx context.Context, req *connect.Request[contracts.GroupRequest]) (*connect.Response[contracts.GroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *Client) SettleBalance(ctx context.Context, req *connect.Request[contracts.SettleRequest]) (*connect.Response[models.SettlementResult], error) {
	return c.settleBalance.CallUnary(ctx, req)
}

func (c *Client) SimplifyDebts(ctx context.Context, req *connect.Request[contracts.GroupRequest]) (*connect.Response[contracts.SimplifyDebtsResponse], error) {
	return c.simplifyDebts.CallUnary(ctx, req)
}
