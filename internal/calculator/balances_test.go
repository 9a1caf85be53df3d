package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func edge(from, to, amount string) models.Balance {
	return models.Balance{FromUser: from, ToUser: to, Amount: money.MustParse(amount)}
}

func TestSimplifyDebts(t *testing.T) {
	tests := []struct {
		name  string
		edges []models.Balance
		want  []Transfer
	}{
		{
			name: "no edges",
			want: nil,
		},
		{
			name:  "single edge passes through",
			edges: []models.Balance{edge("alice", "bob", "12.50")},
			want:  []Transfer{{From: "alice", To: "bob", Amount: 1250}},
		},
		{
			name: "chain collapses to one transfer",
			// alice owes bob 10, bob owes carol 10: alice pays carol directly
			edges: []models.Balance{edge("alice", "bob", "10"), edge("bob", "carol", "10")},
			want:  []Transfer{{From: "alice", To: "carol", Amount: 1000}},
		},
		{
			name: "cycle cancels out",
			edges: []models.Balance{
				edge("alice", "bob", "5"),
				edge("bob", "carol", "5"),
				edge("carol", "alice", "5"),
			},
			want: nil,
		},
		{
			name: "largest debtor matched with largest creditor first",
			edges: []models.Balance{
				edge("dave", "alice", "30"),
				edge("erin", "alice", "10"),
				edge("erin", "bob", "20"),
			},
			// dave -30, erin -30, alice +40, bob +20
			want: []Transfer{
				{From: "dave", To: "alice", Amount: 3000},
				{From: "erin", To: "alice", Amount: 1000},
				{From: "erin", To: "bob", Amount: 2000},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SimplifyDebts(tt.edges))
		})
	}
}

func TestSimplifyDebts_ClearsEveryPosition(t *testing.T) {
	edges := []models.Balance{
		edge("a", "b", "13.37"),
		edge("c", "b", "4.20"),
		edge("d", "a", "99.99"),
		edge("b", "e", "0.01"),
		edge("e", "c", "50"),
	}

	net := make(map[string]money.Cents)
	for _, m := range NetPositions(edges) {
		net[m.UserID] = m.Net
	}
	transfers := SimplifyDebts(edges)
	assert.LessOrEqual(t, len(transfers), len(net)-1)
	for _, tr := range transfers {
		assert.Positive(t, int64(tr.Amount))
		net[tr.From] += tr.Amount
		net[tr.To] -= tr.Amount
	}
	for id, n := range net {
		assert.Zero(t, n, id)
	}
}

func TestNetPositions(t *testing.T) {
	got := NetPositions([]models.Balance{edge("a", "b", "10"), edge("b", "a", "4")})
	assert.Equal(t, []MemberNet{{UserID: "a", Net: -600}, {UserID: "b", Net: 600}}, got)
}
