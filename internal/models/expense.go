package models

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/money"
)

// SplitType is the strategy used to divide an expense among its participants.
type SplitType string

const (
	// SplitEqual divides the amount evenly, rounding each share to the cent.
	SplitEqual SplitType = "EQUAL"
	// SplitExact uses explicit per-user amounts that must sum to the total.
	SplitExact SplitType = "EXACT"
	// SplitPercent uses per-user percentages that must sum to 100.
	SplitPercent SplitType = "PERCENT"
)

// Valid reports whether t is one of the known split types.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitExact, SplitPercent:
		return true
	}
	return false
}

// Expense represents a payment made by one group member on behalf of participants.
// Expenses are immutable once created.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"groupId"`

	// Title is the human-readable description (e.g., "Dinner").
	Title string `json:"title"`

	// PaidBy is the user ID of the member who paid.
	PaidBy string `json:"paidBy"`

	// Amount is the total paid.
	Amount money.Cents `json:"amount"`

	// Participants are the user IDs sharing the expense. All must be group members.
	// The payer may or may not be one of them.
	Participants []string `json:"participants"`

	// SplitType selects how Amount is divided.
	SplitType SplitType `json:"splitType"`

	// Splits holds the submitted allocations for EXACT (amounts) and PERCENT
	// (percentages) splits, keyed by user ID. Nil for EQUAL.
	Splits map[string]decimal.Decimal `json:"splits,omitempty"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt"`
}
