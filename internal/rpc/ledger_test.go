package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

type testEnv struct {
	client  *Client
	token   string
	url     string
	groupID string
	alice   string
	bob     string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	svc := service.New(memory.New(), nil)
	alice, err := svc.Users.CreateUser(ctx, contracts.CreateUserRequest{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := svc.Users.CreateUser(ctx, contracts.CreateUserRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	group, err := svc.Groups.CreateGroup(ctx, contracts.CreateGroupRequest{Name: "Flat", Members: []string{alice.ID, bob.ID}})
	require.NoError(t, err)

	jm := auth.NewJWTManager("0123456789abcdef0123456789abcdef", "splitledger", time.Hour)
	token, err := jm.Generate(alice.ID, alice.Email)
	require.NoError(t, err)

	path, handler := NewHandler(svc, connect.WithInterceptors(
		middleware.RequireAuth(jm),
		middleware.LoggingInterceptor(),
	))
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		client:  NewClient(http.DefaultClient, server.URL),
		token:   token,
		url:     server.URL,
		groupID: group.ID,
		alice:   alice.ID,
		bob:     bob.ID,
	}
}

func authed[T any](env *testEnv, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+env.token)
	return req
}

func TestLedgerService_Flow(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	expResp, err := env.client.CreateExpense(ctx, authed(env, &contracts.CreateExpenseRequest{
		GroupID:      env.groupID,
		Title:        "Groceries",
		PaidBy:       env.alice,
		Amount:       decimal.RequireFromString("80.50"),
		Participants: []string{env.alice, env.bob},
		SplitType:    string(models.SplitEqual),
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, expResp.Msg.ID)
	assert.Equal(t, money.MustParse("80.50"), expResp.Msg.Amount)

	balResp, err := env.client.GetGroupBalances(ctx, authed(env, &contracts.GroupRequest{GroupID: env.groupID}))
	require.NoError(t, err)
	require.Len(t, balResp.Msg.Balances, 1)
	b := balResp.Msg.Balances[0]
	assert.Equal(t, "Bob", b.FromUser.Name)
	assert.Equal(t, "Alice", b.ToUser.Name)
	assert.Equal(t, money.MustParse("40.25"), b.Amount)

	simpResp, err := env.client.SimplifyDebts(ctx, authed(env, &contracts.GroupRequest{GroupID: env.groupID}))
	require.NoError(t, err)
	require.Len(t, simpResp.Msg.Transfers, 1)
	assert.Equal(t, env.bob, simpResp.Msg.Transfers[0].From)

	settleResp, err := env.client.SettleBalance(ctx, authed(env, &contracts.SettleRequest{
		GroupID:  env.groupID,
		FromUser: env.bob,
		ToUser:   env.alice,
		Amount:   decimal.RequireFromString("40.25"),
	}))
	require.NoError(t, err)
	assert.Equal(t, models.SettledCompletely, settleResp.Msg.Message)
	assert.Nil(t, settleResp.Msg.Remaining)
}

func TestLedgerService_ErrorCodes(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, err := env.client.GetGroupBalances(ctx, connect.NewRequest(&contracts.GroupRequest{GroupID: env.groupID}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = env.client.CreateExpense(ctx, authed(env, &contracts.CreateExpenseRequest{
		GroupID:      env.groupID,
		Title:        "Bad",
		PaidBy:       env.alice,
		Amount:       decimal.RequireFromString("10"),
		Participants: []string{env.alice, "stranger"},
		SplitType:    string(models.SplitEqual),
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	var connectErr *connect.Error
	require.ErrorAs(t, err, &connectErr)
	assert.Equal(t, "Participant not in group", connectErr.Message())

	_, err = env.client.CreateExpense(ctx, authed(env, &contracts.CreateExpenseRequest{
		GroupID:      "missing",
		Title:        "Bad",
		PaidBy:       env.alice,
		Amount:       decimal.RequireFromString("-1"),
		Participants: []string{env.alice},
		SplitType:    "SHARES",
	}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = env.client.SettleBalance(ctx, authed(env, &contracts.SettleRequest{
		GroupID:  env.groupID,
		FromUser: env.bob,
		ToUser:   env.alice,
		Amount:   decimal.RequireFromString("1"),
	}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = env.client.GetGroupBalances(ctx, authed(env, &contracts.GroupRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestLedgerService_PlainJSONPost(t *testing.T) {
	env := setupTestServer(t)

	body := `{"groupId":"` + env.groupID + `"}`
	req, err := http.NewRequest(http.MethodPost, env.url+GetGroupBalancesProcedure, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
