package models

import "github.com/mmynk/splitledger/internal/money"

// Settlement messages reported to clients.
const (
	SettledCompletely = "Balance settled completely"
	SettledPartially  = "Balance settled partially"
)

// SettlementResult is the outcome of paying down a balance.
// Settlements are not persisted; only their effect on the Balance is.
type SettlementResult struct {
	// Message describes whether the balance was fully or partially settled.
	Message string `json:"message"`

	// Remaining is the amount still owed after a partial settlement.
	// Nil when the balance was cleared.
	Remaining *money.Cents `json:"remaining,omitempty"`
}

// Full reports whether the settlement cleared the balance.
func (r SettlementResult) Full() bool {
	return r.Remaining == nil
}
