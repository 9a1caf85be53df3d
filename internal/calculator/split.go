package calculator

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Split computes how much each participant owes for an expense of amount.
//
// EQUAL ignores allocations and gives every participant amount/n rounded to the
// cent, so shares may not add back up to amount exactly. EXACT and PERCENT
// require allocations keyed by user ID; the returned map holds one entry per
// allocation key.
func Split(amount money.Cents, participants []string, strategy models.SplitType, allocations map[string]decimal.Decimal) (map[string]money.Cents, error) {
	switch strategy {
	case models.SplitEqual:
		return equalSplit(amount, participants)
	case models.SplitExact:
		if allocations == nil {
			return nil, apperr.Validation("Exact splits required")
		}
		return exactSplit(amount, allocations)
	case models.SplitPercent:
		if allocations == nil {
			return nil, apperr.Validation("Percent splits required")
		}
		return percentSplit(amount, allocations)
	default:
		return nil, apperr.Validation("Invalid split type")
	}
}

func equalSplit(amount money.Cents, participants []string) (map[string]money.Cents, error) {
	if len(participants) == 0 {
		return nil, apperr.Validation("must have at least one participant")
	}

	share := money.RoundDecimal(amount.Decimal().Div(decimal.NewFromInt(int64(len(participants)))))
	shares := make(map[string]money.Cents, len(participants))
	for _, p := range participants {
		shares[p] = share
	}
	return shares, nil
}

func exactSplit(amount money.Cents, allocations map[string]decimal.Decimal) (map[string]money.Cents, error) {
	total := decimal.Zero
	shares := make(map[string]money.Cents, len(allocations))
	for _, userID := range slices.Sorted(maps.Keys(allocations)) {
		v := allocations[userID]
		if v.IsNegative() {
			return nil, apperr.Validationf("Split for user %s must not be negative", userID)
		}
		c, err := money.FromDecimal(v)
		if err != nil {
			return nil, apperr.Validationf("Split for user %s: %v", userID, err)
		}
		shares[userID] = c
		total = total.Add(v)
	}

	if !total.Equal(amount.Decimal()) {
		return nil, apperr.Validation("Exact split must sum to amount")
	}
	return shares, nil
}

func percentSplit(amount money.Cents, allocations map[string]decimal.Decimal) (map[string]money.Cents, error) {
	total := decimal.Zero
	for _, userID := range slices.Sorted(maps.Keys(allocations)) {
		pct := allocations[userID]
		if pct.IsNegative() {
			return nil, apperr.Validationf("Percent for user %s must not be negative", userID)
		}
		total = total.Add(pct)
	}
	if !total.Equal(hundred) {
		return nil, apperr.Validation("Percent split must sum to 100")
	}

	// share = amount × percent / 100, rounded half away from zero to the cent
	shares := make(map[string]money.Cents, len(allocations))
	for userID, pct := range allocations {
		shares[userID] = money.RoundDecimal(amount.Decimal().Mul(pct).Div(hundred))
	}
	return shares, nil
}
