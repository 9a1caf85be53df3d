package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    Cents
		wantErr error
	}{
		{"12.34", 1234, nil},
		{"100", 10000, nil},
		{"0.1", 10, nil},
		{"0", 0, nil},
		{"-5.5", -550, nil},
		{"12.345", 0, ErrTooPrecise},
		{"0.001", 0, ErrTooPrecise},
		{"100000000000000000000", 0, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FromDecimal(decimal.RequireFromString(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundDecimal(t *testing.T) {
	assert.Equal(t, Cents(3333), RoundDecimal(decimal.RequireFromString("33.333333")))
	assert.Equal(t, Cents(1667), RoundDecimal(decimal.RequireFromString("16.665")))
	assert.Equal(t, Cents(1666), RoundDecimal(decimal.RequireFromString("16.664")))
}

func TestCentsJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Cents `json:"amount"`
	}{Amount: 3333})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":33.33}`, string(b))

	var in struct {
		Amount Cents `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":50}`), &in))
	assert.Equal(t, Cents(5000), in.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"19.99"}`), &in))
	assert.Equal(t, Cents(1999), in.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":1.005}`), &in))
}

func TestString(t *testing.T) {
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "120.00", MustParse("120").String())
}
