package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
)

// weight is the contribution of a posting to the transaction balance: the
// cost total when a cost is given, else the price total when a price is
// given, else the unit amount itself.
type weight struct {
	Amount    decimal.Decimal
	Commodity string
}

// postingWeight computes the balance contribution of a posting with an
// explicit amount. Cost is authoritative when both cost and price are
// present; the price is informational only.
func postingWeight(posting *ast.Posting) (weight, error) {
	units, err := ParseAmount(posting.Amount)
	if err != nil {
		return weight{}, err
	}

	switch {
	case posting.Cost != nil:
		costNumber, err := ParseAmount(posting.Cost.Amount)
		if err != nil {
			return weight{}, err
		}
		return weight{
			Amount:    units.Mul(costNumber),
			Commodity: posting.Cost.Amount.Commodity,
		}, nil

	case posting.Price != nil:
		priceNumber, err := ParseAmount(posting.Price)
		if err != nil {
			return weight{}, err
		}
		if posting.Total {
			// @@ total price carries the sign of the units
			total := priceNumber
			if units.IsNegative() {
				total = total.Neg()
			}
			return weight{Amount: total, Commodity: posting.Price.Commodity}, nil
		}
		return weight{
			Amount:    units.Mul(priceNumber),
			Commodity: posting.Price.Commodity,
		}, nil

	default:
		return weight{Amount: units, Commodity: posting.Amount.Commodity}, nil
	}
}

// costPriceGap returns the absolute difference between the cost total and
// the price total of a posting carrying both clauses in the same commodity.
// The bool result is false when the clauses are not comparable.
func costPriceGap(posting *ast.Posting) (decimal.Decimal, bool) {
	if posting.Cost == nil || posting.Price == nil || posting.Amount == nil {
		return decimal.Zero, false
	}
	if posting.Cost.Amount.Commodity != posting.Price.Commodity {
		return decimal.Zero, false
	}

	units, err := ParseAmount(posting.Amount)
	if err != nil {
		return decimal.Zero, false
	}
	costNumber, err := ParseAmount(posting.Cost.Amount)
	if err != nil {
		return decimal.Zero, false
	}
	priceNumber, err := ParseAmount(posting.Price)
	if err != nil {
		return decimal.Zero, false
	}

	costTotal := units.Mul(costNumber).Abs()
	priceTotal := priceNumber.Abs()
	if !posting.Total {
		priceTotal = units.Mul(priceNumber).Abs()
	}

	return costTotal.Sub(priceTotal).Abs(), true
}
