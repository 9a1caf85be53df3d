package models

import "github.com/mmynk/splitledger/internal/money"

// Balance is a directed debt edge: FromUser owes ToUser Amount within GroupID.
// (GroupID, FromUser, ToUser) is unique, and the ledger guarantees that the
// reverse edge never exists at the same time.
type Balance struct {
	// ID is the unique identifier for the edge (UUID format).
	ID string `json:"id"`

	// GroupID scopes the edge to one group.
	GroupID string `json:"groupId"`

	// FromUser is the debtor.
	FromUser string `json:"fromUser"`

	// ToUser is the creditor.
	ToUser string `json:"toUser"`

	// Amount is always strictly positive.
	Amount money.Cents `json:"amount"`

	// CreatedAt is the Unix timestamp when the edge was first created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last amount change.
	UpdatedAt int64 `json:"updatedAt"`
}

// BalanceView is a Balance with both users resolved to display names.
type BalanceView struct {
	ID       string      `json:"id"`
	GroupID  string      `json:"groupId"`
	FromUser UserRef     `json:"fromUser"`
	ToUser   UserRef     `json:"toUser"`
	Amount   money.Cents `json:"amount"`
}
