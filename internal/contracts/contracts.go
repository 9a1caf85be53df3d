// Package contracts holds the request and response bodies shared by the REST
// and RPC transports.
//
// Amounts arrive as decimals (JSON numbers or numeric strings) and are
// converted to cents by the services. Responses carry models whose amounts
// are money.Cents, which encode as JSON numbers with two decimals.
package contracts

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
	// Members optionally seeds the group with existing users.
	Members []string `json:"members,omitempty"`
}

type AddMemberRequest struct {
	UserID string `json:"userId"`
}

type CreateExpenseRequest struct {
	GroupID      string                     `json:"groupId"`
	Title        string                     `json:"title"`
	PaidBy       string                     `json:"paidBy"`
	Amount       decimal.Decimal            `json:"amount"`
	Participants []string                   `json:"participants"`
	SplitType    string                     `json:"splitType"`
	Splits       map[string]decimal.Decimal `json:"splits,omitempty"`
}

type SettleRequest struct {
	GroupID  string          `json:"groupId"`
	FromUser string          `json:"fromUser"`
	ToUser   string          `json:"toUser"`
	Amount   decimal.Decimal `json:"amount"`
}

// GroupRequest names a group for the RPC read methods.
type GroupRequest struct {
	GroupID string `json:"groupId"`
}

type GroupBalancesResponse struct {
	Balances []models.BalanceView `json:"balances"`
}

type SimplifyDebtsResponse struct {
	Transfers []calculator.Transfer `json:"transfers"`
}

// ErrorResponse is the REST error body. Error carries the underlying cause
// on the user endpoints' 500 responses.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
