package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Transfer is one payment in a settlement plan.
type Transfer struct {
	From   string      `json:"from"`   // Person who pays
	To     string      `json:"to"`     // Person who receives
	Amount money.Cents `json:"amount"` // Always positive
}

// MemberNet is a member's net position across a group's edges.
type MemberNet struct {
	UserID string
	Net    money.Cents // Positive = owed money, Negative = owes money
}

// NetPositions folds directed edges into one net amount per member.
// Members whose position nets to zero are omitted.
func NetPositions(edges []models.Balance) []MemberNet {
	net := make(map[string]money.Cents)
	for _, e := range edges {
		net[e.FromUser] -= e.Amount
		net[e.ToUser] += e.Amount
	}

	var out []MemberNet
	for id, n := range net {
		if n != 0 {
			out = append(out, MemberNet{UserID: id, Net: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// SimplifyDebts computes a settlement plan that clears every net position with
// at most n-1 transfers. It does not modify the ledger.
//
// Algorithm:
// - Net every member's position from the edges
// - Split members into debtors (net < 0) and creditors (net > 0)
// - Greedy: match the largest debt with the largest credit until both lists drain
//
// Ties are broken by user ID so the plan is deterministic.
func SimplifyDebts(edges []models.Balance) []Transfer {
	var debtors, creditors []MemberNet
	for _, m := range NetPositions(edges) {
		if m.Net < 0 {
			debtors = append(debtors, MemberNet{UserID: m.UserID, Net: -m.Net}) // make positive
		} else {
			creditors = append(creditors, m)
		}
	}
	byLargest := func(s []MemberNet) {
		sort.SliceStable(s, func(i, j int) bool {
			if s[i].Net != s[j].Net {
				return s[i].Net > s[j].Net
			}
			return s[i].UserID < s[j].UserID
		})
	}
	byLargest(debtors)
	byLargest(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := min(d.Net, c.Net)
		transfers = append(transfers, Transfer{From: d.UserID, To: c.UserID, Amount: amount})

		d.Net -= amount
		c.Net -= amount
		if d.Net == 0 {
			i++
		}
		if c.Net == 0 {
			j++
		}
	}
	return transfers
}
