package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
)

// ParseAmount converts an ast.Amount to a decimal.Decimal.
func ParseAmount(amount *ast.Amount) (decimal.Decimal, error) {
	if amount == nil {
		return decimal.Zero, fmt.Errorf("amount is nil")
	}

	d, err := decimal.NewFromString(amount.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount value %q: %w", amount.Value, err)
	}

	return d, nil
}

// MustParseAmount converts an ast.Amount to a decimal.Decimal and panics on
// error. Use only in tests or when the amount is known valid.
func MustParseAmount(amount *ast.Amount) decimal.Decimal {
	d, err := ParseAmount(amount)
	if err != nil {
		panic(err)
	}
	return d
}

// Rounding is a commodity's rounding mode for display amounts.
type Rounding string

const (
	RoundUp       Rounding = "round_up"
	RoundDown     Rounding = "round_down"
	RoundHalfUp   Rounding = "round_half_up"
	RoundHalfEven Rounding = "round_half_even"
)

// ParseRounding maps an option value onto a rounding mode.
func ParseRounding(value string) (Rounding, error) {
	switch Rounding(value) {
	case RoundUp, RoundDown, RoundHalfUp, RoundHalfEven:
		return Rounding(value), nil
	// Accept the short spellings the options surface historically used
	case "up":
		return RoundUp, nil
	case "down":
		return RoundDown, nil
	}
	return "", fmt.Errorf("unknown rounding mode %q", value)
}

// Apply rounds d to the given number of fractional digits with this mode.
func (r Rounding) Apply(d decimal.Decimal, precision int32) decimal.Decimal {
	switch r {
	case RoundUp:
		return d.RoundUp(precision)
	case RoundDown:
		return d.RoundDown(precision)
	case RoundHalfEven:
		return d.RoundBank(precision)
	default:
		return d.Round(precision)
	}
}

// Tolerance returns the maximum deviation allowed for balance checks at the
// given precision: half of the smallest representable step.
//
// precision 2 -> 0.005
func Tolerance(precision int32) decimal.Decimal {
	step := decimal.New(1, -precision)
	return step.Div(decimal.NewFromInt(2))
}

// WithinTolerance checks whether two amounts are equal within tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
