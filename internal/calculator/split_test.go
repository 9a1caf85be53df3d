package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSplit(t *testing.T) {
	tests := []struct {
		name         string
		amount       money.Cents
		participants []string
		strategy     models.SplitType
		allocations  map[string]decimal.Decimal
		wantErr      string
		validateFunc func(t *testing.T, shares map[string]money.Cents)
	}{
		{
			name:         "equal three-way split rounds each share",
			amount:       money.MustParse("100"),
			participants: []string{"A", "B", "C"},
			strategy:     models.SplitEqual,
			validateFunc: func(t *testing.T, shares map[string]money.Cents) {
				for _, p := range []string{"A", "B", "C"} {
					assert.Equal(t, money.MustParse("33.33"), shares[p], p)
				}
			},
		},
		{
			name:         "equal split rounds half up",
			amount:       money.MustParse("0.05"),
			participants: []string{"A", "B"},
			strategy:     models.SplitEqual,
			validateFunc: func(t *testing.T, shares map[string]money.Cents) {
				// 0.025 rounds to 0.03
				assert.Equal(t, money.Cents(3), shares["A"])
				assert.Equal(t, money.Cents(3), shares["B"])
			},
		},
		{
			name:         "equal split ignores allocations",
			amount:       money.MustParse("10"),
			participants: []string{"A", "B"},
			strategy:     models.SplitEqual,
			allocations:  map[string]decimal.Decimal{"A": dec("9")},
			validateFunc: func(t *testing.T, shares map[string]money.Cents) {
				assert.Equal(t, money.MustParse("5"), shares["A"])
			},
		},
		{
			name:     "equal split with no participants",
			amount:   money.MustParse("10"),
			strategy: models.SplitEqual,
			wantErr:  "must have at least one participant",
		},
		{
			name:         "exact split returns allocations in cents",
			amount:       money.MustParse("50"),
			participants: []string{"A", "B"},
			strategy:     models.SplitExact,
			allocations:  map[string]decimal.Decimal{"A": dec("20.50"), "B": dec("29.5")},
			validateFunc: func(t *testing.T, shares map[string]money.Cents) {
				assert.Equal(t, map[string]money.Cents{"A": 2050, "B": 2950}, shares)
			},
		},
		{
			name:         "exact split must sum to amount",
			amount:       money.MustParse("50"),
			participants: []string{"A", "B"},
			strategy:     models.SplitExact,
			allocations:  map[string]decimal.Decimal{"A": dec("20"), "B": dec("29.99")},
			wantErr:      "Exact split must sum to amount",
		},
		{
			name:         "exact split requires allocations",
			amount:       money.MustParse("50"),
			participants: []string{"A"},
			strategy:     models.SplitExact,
			wantErr:      "Exact splits required",
		},
		{
			name:         "exact split rejects sub-cent values",
			amount:       money.MustParse("1"),
			participants: []string{"A", "B"},
			strategy:     models.SplitExact,
			allocations:  map[string]decimal.Decimal{"A": dec("0.333"), "B": dec("0.667")},
			wantErr:      "Split for user",
		},
		{
			name:         "exact split rejects negative values",
			amount:       money.MustParse("1"),
			participants: []string{"A", "B"},
			strategy:     models.SplitExact,
			allocations:  map[string]decimal.Decimal{"A": dec("-1"), "B": dec("2")},
			wantErr:      "must not be negative",
		},
		{
			name:         "percent split",
			amount:       money.MustParse("200"),
			participants: []string{"A", "B"},
			strategy:     models.SplitPercent,
			allocations:  map[string]decimal.Decimal{"A": dec("25"), "B": dec("75")},
			validateFunc: func(t *testing.T, shares map[string]money.Cents) {
				assert.Equal(t, money.MustParse("50"), shares["A"])
				assert.Equal(t, money.MustParse("150"), shares["B"])
			},
		},
		{
			name:         "percent split rounds to the cent",
			amount:       money.MustParse("10"),
			participants: []string{"A", "B", "C"},
			strategy:     models.SplitPercent,
			allocations:  map[string]decimal.Decimal{"A": dec("33.33"), "B": dec("33.33"), "C": dec("33.34")},
			validateFunc: func(t *testing.T, shares map[string]money.Cents) {
				assert.Equal(t, money.MustParse("3.33"), shares["A"])
				assert.Equal(t, money.MustParse("3.33"), shares["B"])
				assert.Equal(t, money.MustParse("3.33"), shares["C"])
			},
		},
		{
			name:         "percent split must sum to 100",
			amount:       money.MustParse("10"),
			participants: []string{"A", "B"},
			strategy:     models.SplitPercent,
			allocations:  map[string]decimal.Decimal{"A": dec("50"), "B": dec("49.9")},
			wantErr:      "Percent split must sum to 100",
		},
		{
			name:         "percent split requires allocations",
			amount:       money.MustParse("10"),
			participants: []string{"A"},
			strategy:     models.SplitPercent,
			wantErr:      "Percent splits required",
		},
		{
			name:         "unknown split type",
			amount:       money.MustParse("10"),
			participants: []string{"A"},
			strategy:     models.SplitType("SHARES"),
			wantErr:      "Invalid split type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Split(tt.amount, tt.participants, tt.strategy, tt.allocations)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperr.IsValidation(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.validateFunc != nil {
				tt.validateFunc(t, shares)
			}
		})
	}
}

func TestSplit_EqualSharesStayWithinRounding(t *testing.T) {
	for n := 1; n <= 12; n++ {
		participants := make([]string, n)
		for i := range participants {
			participants[i] = string(rune('A' + i))
		}
		for _, amount := range []money.Cents{1, 99, 100, 1001, 12345, 99999} {
			shares, err := Split(amount, participants, models.SplitEqual, nil)
			require.NoError(t, err)

			var sum money.Cents
			for _, s := range shares {
				sum += s
			}
			diff := sum - amount
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqual(t, int64(diff), int64(n-1), "n=%d amount=%s", n, amount)
		}
	}
}

func TestSplit_NamesFirstInvalidUserInOrder(t *testing.T) {
	exact := map[string]decimal.Decimal{"carol": dec("-1"), "alice": dec("-2"), "bob": dec("0.001")}
	percent := map[string]decimal.Decimal{"carol": dec("-10"), "bob": dec("-20"), "dave": dec("130")}

	// repeat to catch map iteration order leaking into the message
	for range 20 {
		_, err := Split(300, []string{"alice", "bob", "carol"}, models.SplitExact, exact)
		require.Error(t, err)
		assert.Equal(t, "Split for user alice must not be negative", apperr.Message(err))

		_, err = Split(300, []string{"bob", "carol", "dave"}, models.SplitPercent, percent)
		require.Error(t, err)
		assert.Equal(t, "Percent for user bob must not be negative", apperr.Message(err))
	}
}
