package ledger

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
)

func date(t *testing.T, value string) *ast.Date {
	t.Helper()
	d, err := ast.ParseDate(value)
	assert.NoError(t, err)
	return d
}

func TestPriceDBForwardFill(t *testing.T) {
	db := NewPriceDB()
	db.AddPrice(date(t, "2023-01-01"), "USD", "EUR", decimal.RequireFromString("0.90"))
	db.AddPrice(date(t, "2023-03-01"), "USD", "EUR", decimal.RequireFromString("0.95"))

	rate, rateDate, ok := db.RateAt("USD", "EUR", date(t, "2023-02-15"))
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.90")))
	assert.Equal(t, "2023-01-01", rateDate.String())

	rate, _, ok = db.RateAt("USD", "EUR", date(t, "2023-03-01"))
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.95")))

	_, _, ok = db.RateAt("USD", "EUR", date(t, "2022-12-31"))
	assert.False(t, ok)
}

func TestPriceDBIdempotentInsert(t *testing.T) {
	db := NewPriceDB()
	db.AddPrice(date(t, "2023-01-01"), "USD", "EUR", decimal.RequireFromString("0.90"))
	db.AddPrice(date(t, "2023-01-01"), "USD", "EUR", decimal.RequireFromString("0.90"))

	assert.Equal(t, 1, len(db.Pairs()))
	converted, ok := db.Convert(decimal.NewFromInt(10), "USD", "EUR", date(t, "2023-06-01"))
	assert.True(t, ok)
	assert.True(t, converted.Equal(decimal.RequireFromString("9.0")))
}

func TestPriceDBSameCommodity(t *testing.T) {
	db := NewPriceDB()
	amount := decimal.RequireFromString("42.42")
	converted, ok := db.Convert(amount, "USD", "USD", date(t, "2023-01-01"))
	assert.True(t, ok)
	assert.True(t, converted.Equal(amount))
}

func TestPriceDBMultiHopConversion(t *testing.T) {
	db := NewPriceDB()
	db.AddPrice(date(t, "2023-01-01"), "USD", "EUR", decimal.RequireFromString("0.90"))
	db.AddPrice(date(t, "2023-01-01"), "EUR", "GBP", decimal.RequireFromString("0.80"))

	converted, ok := db.Convert(decimal.NewFromInt(100), "USD", "GBP", date(t, "2023-06-01"))
	assert.True(t, ok)
	assert.True(t, converted.Equal(decimal.RequireFromString("72.0")))
}

func TestPriceDBNoRoute(t *testing.T) {
	db := NewPriceDB()
	db.AddPrice(date(t, "2023-01-01"), "USD", "EUR", decimal.RequireFromString("0.90"))

	_, ok := db.Convert(decimal.NewFromInt(100), "EUR", "USD", date(t, "2023-06-01"))
	assert.False(t, ok, "inverse edges are not implicit")

	_, ok = db.Convert(decimal.NewFromInt(100), "USD", "JPY", date(t, "2023-06-01"))
	assert.False(t, ok)
}

func TestPriceDBRoundTripConsistency(t *testing.T) {
	db := NewPriceDB()
	db.AddPrice(date(t, "2023-01-01"), "USD", "EUR", decimal.RequireFromString("0.80"))
	db.AddPrice(date(t, "2023-01-01"), "EUR", "USD", decimal.RequireFromString("1.25"))

	amount := decimal.RequireFromString("123.45")
	there, ok := db.Convert(amount, "USD", "EUR", date(t, "2023-06-01"))
	assert.True(t, ok)
	back, ok := db.Convert(there, "EUR", "USD", date(t, "2023-06-01"))
	assert.True(t, ok)
	assert.True(t, back.Sub(amount).Abs().LessThan(decimal.RequireFromString("0.0001")))
}

func TestPriceDBShortestPathWins(t *testing.T) {
	db := NewPriceDB()
	// Direct edge and a two-hop detour with a very different rate
	db.AddPrice(date(t, "2023-01-01"), "USD", "GBP", decimal.RequireFromString("0.75"))
	db.AddPrice(date(t, "2023-01-01"), "USD", "EUR", decimal.RequireFromString("0.90"))
	db.AddPrice(date(t, "2023-01-01"), "EUR", "GBP", decimal.RequireFromString("0.50"))

	converted, ok := db.Convert(decimal.NewFromInt(100), "USD", "GBP", date(t, "2023-06-01"))
	assert.True(t, ok)
	assert.True(t, converted.Equal(decimal.RequireFromString("75.0")))
}
