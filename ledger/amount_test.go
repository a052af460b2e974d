package ledger

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
)

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(&ast.Amount{Value: "-3.50", Commodity: "USD"})
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("-3.5")))

	_, err = ParseAmount(&ast.Amount{Value: "abc", Commodity: "USD"})
	assert.Error(t, err)

	_, err = ParseAmount(nil)
	assert.Error(t, err)
}

func TestParseAmountPreservesScale(t *testing.T) {
	d, err := ParseAmount(&ast.Amount{Value: "0.00000001", Commodity: "BTC"})
	assert.NoError(t, err)
	assert.Equal(t, int32(-8), d.Exponent())
}

func TestTolerance(t *testing.T) {
	assert.True(t, Tolerance(2).Equal(decimal.RequireFromString("0.005")))
	assert.True(t, Tolerance(0).Equal(decimal.RequireFromString("0.5")))
	assert.True(t, Tolerance(8).Equal(decimal.RequireFromString("0.000000005")))
}

func TestWithinTolerance(t *testing.T) {
	tolerance := Tolerance(2)
	a := decimal.RequireFromString("100.00")

	assert.True(t, WithinTolerance(a, decimal.RequireFromString("100.004"), tolerance))
	assert.True(t, WithinTolerance(a, decimal.RequireFromString("99.995"), tolerance))
	assert.False(t, WithinTolerance(a, decimal.RequireFromString("100.006"), tolerance))
}

func TestParseRounding(t *testing.T) {
	tests := []struct {
		input string
		want  Rounding
	}{
		{"round_up", RoundUp},
		{"round_down", RoundDown},
		{"round_half_up", RoundHalfUp},
		{"round_half_even", RoundHalfEven},
		{"up", RoundUp},
		{"down", RoundDown},
	}
	for _, tt := range tests {
		got, err := ParseRounding(tt.input)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseRounding("sideways")
	assert.Error(t, err)
}

func TestRoundingApply(t *testing.T) {
	value := decimal.RequireFromString("2.345")

	assert.Equal(t, "2.35", RoundUp.Apply(value, 2).String())
	assert.Equal(t, "2.34", RoundDown.Apply(value, 2).String())
	assert.Equal(t, "2.35", RoundHalfUp.Apply(value, 2).String())
	assert.Equal(t, "2.34", RoundHalfEven.Apply(value, 2).String())
}
