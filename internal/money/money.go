// Package money keeps amounts in integer cents and converts them at the API boundary.
//
// Arithmetic inside the ledger is done on Cents only. Decimal values come in
// from JSON and are converted with FromDecimal, which rejects anything that
// cannot be represented exactly in cents.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount of money in minor units.
type Cents int64

var (
	ErrTooPrecise = errors.New("amount must have at most 2 decimal places")
	ErrOutOfRange = errors.New("amount out of range")
)

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a decimal amount to cents. Amounts with more than two
// decimal places are rejected rather than rounded.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, ErrTooPrecise
	}
	if !scaled.BigInt().IsInt64() {
		return 0, ErrOutOfRange
	}
	return Cents(scaled.IntPart()), nil
}

// MustParse converts a decimal string to cents and panics on failure.
// Intended for constants and tests.
func MustParse(s string) Cents {
	c, err := FromDecimal(decimal.RequireFromString(s))
	if err != nil {
		panic(fmt.Sprintf("money: %q: %v", s, err))
	}
	return c
}

// RoundDecimal rounds a decimal to the nearest cent, halves away from zero.
func RoundDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// Decimal returns the amount as a two-place decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount with exactly two decimals.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Float64 returns the amount in major units, for display only.
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

// MarshalJSON writes the amount as a bare JSON number with two decimals.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
