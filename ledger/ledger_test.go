package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
	"github.com/KushNee/zhang/parser"
)

// evaluateString parses and replays a ledger from source.
func evaluateString(t *testing.T, source string) *Snapshot {
	t.Helper()

	tree, errs := parser.ParseString("test.zhang", source)
	l := New()
	for _, err := range errs {
		l.AddErrors(err)
	}
	l.Process(context.Background(), tree)
	return l.Snapshot()
}

func diagnosticKinds(s *Snapshot) []string {
	kinds := make([]string, 0, len(s.Diagnostics))
	for _, diag := range s.Diagnostics {
		kinds = append(kinds, diag.Kind())
	}
	return kinds
}

func balanceOf(t *testing.T, s *Snapshot, account, commodity string) decimal.Decimal {
	t.Helper()
	state, ok := s.Account(account)
	assert.True(t, ok, "account %s not found", account)
	return state.Inventory.Get(commodity)
}

func TestElisionFillsMissingAmount(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Food USD
2023-01-02 * "coffee"
  Assets:Cash -3.50 USD
  Expenses:Food
`)

	assert.Equal(t, 0, len(snapshot.Diagnostics), "unexpected diagnostics: %v", snapshot.Diagnostics)
	assert.True(t, balanceOf(t, snapshot, "Expenses:Food", "USD").Equal(decimal.RequireFromString("3.50")))
	assert.True(t, balanceOf(t, snapshot, "Assets:Cash", "USD").Equal(decimal.RequireFromString("-3.50")))

	txn := snapshot.Journal[0]
	filled := txn.Postings[1]
	assert.True(t, filled.Inferred)
	assert.Equal(t, "3.5", filled.Amount.Value)
	assert.Equal(t, "USD", filled.Amount.Commodity)
}

func TestElisionIsDeterministic(t *testing.T) {
	source := `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Food USD
2023-01-02 * "coffee"
  Assets:Cash -3.50 USD
  Expenses:Food
`
	first := evaluateString(t, source)
	second := evaluateString(t, source)

	assert.Equal(t, first.Journal[0].Postings[1].Amount.Value, second.Journal[0].Postings[1].Amount.Value)
	assert.Equal(t, len(first.Diagnostics), len(second.Diagnostics))
}

func TestBalanceAssertionWithPad(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Bank USD
1970-01-01 open Equity:Opening USD
2023-01-05 balance Assets:Bank 100.00 USD with pad Equity:Opening
`)

	assert.Equal(t, 0, len(snapshot.Diagnostics), "unexpected diagnostics: %v", snapshot.Diagnostics)
	assert.True(t, balanceOf(t, snapshot, "Assets:Bank", "USD").Equal(decimal.RequireFromString("100.00")))
	assert.True(t, balanceOf(t, snapshot, "Equity:Opening", "USD").Equal(decimal.RequireFromString("-100.00")))

	assert.Equal(t, 1, len(snapshot.Journal))
	pad := snapshot.Journal[0]
	assert.Equal(t, "2023-01-04 23:59:59", pad.Date.String())
	assert.Equal(t, 2, len(pad.Postings))
}

func TestBalanceAssertionFailure(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Bank USD
2023-01-05 balance Assets:Bank 100.00 USD
`)

	assert.Equal(t, []string{"AssertionFailed"}, diagnosticKinds(snapshot))
}

func TestBalanceAssertionWithinTolerance(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Bank USD
1970-01-01 open Equity:Opening USD
2023-01-02 * "opening"
  Assets:Bank 100.004 USD
  Equity:Opening
2023-01-05 balance Assets:Bank 100.00 USD
`)

	// Default tolerance precision 2 allows a 0.005 deviation
	assert.Equal(t, 0, len(snapshot.Diagnostics), "unexpected diagnostics: %v", snapshot.Diagnostics)
}

func TestBalanceAssertionSeesSameDayTransaction(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Bank USD
1970-01-01 open Equity:Opening USD
2023-01-05 * "opening"
  Assets:Bank 100.00 USD
  Equity:Opening
2023-01-05 balance Assets:Bank 100.00 USD
`)

	assert.Equal(t, 0, len(snapshot.Diagnostics), "unexpected diagnostics: %v", snapshot.Diagnostics)
}

func TestPostingToClosedAccount(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Food USD
1970-01-01 open Equity:Opening USD
2023-01-02 * "opening"
  Assets:Cash 10.00 USD
  Equity:Opening
2023-02-01 close Expenses:Food
2023-03-01 * "late coffee"
  Assets:Cash -3.50 USD
  Expenses:Food
`)

	kinds := diagnosticKinds(snapshot)
	assert.Equal(t, []string{"AccountClosed"}, kinds)

	// The rest of the file still evaluated
	assert.True(t, balanceOf(t, snapshot, "Assets:Cash", "USD").Equal(decimal.RequireFromString("10.00")))
}

func TestCrossCommodityPrice(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Foreign EUR
2023-01-01 price USD 0.90 EUR
2023-02-01 * "fx"
  Assets:Cash -10 USD @ 0.85 EUR
  Expenses:Foreign
`)

	assert.Equal(t, 0, len(snapshot.Diagnostics), "unexpected diagnostics: %v", snapshot.Diagnostics)
	assert.True(t, balanceOf(t, snapshot, "Expenses:Foreign", "EUR").Equal(decimal.RequireFromString("8.50")))
	assert.True(t, balanceOf(t, snapshot, "Assets:Cash", "USD").Equal(decimal.RequireFromString("-10")))
}

func TestTotalPriceWeight(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Foreign EUR
2023-02-01 * "fx"
  Assets:Cash -10 USD @@ 8.50 EUR
  Expenses:Foreign
`)

	assert.Equal(t, 0, len(snapshot.Diagnostics), "unexpected diagnostics: %v", snapshot.Diagnostics)
	assert.True(t, balanceOf(t, snapshot, "Expenses:Foreign", "EUR").Equal(decimal.RequireFromString("8.50")))
}

func TestTransactionUnbalanced(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Food USD
2023-01-02 * "coffee"
  Assets:Cash -3.50 USD
  Expenses:Food 3.00 USD
`)

	assert.Equal(t, []string{"TransactionUnbalanced"}, diagnosticKinds(snapshot))
	// A failed transaction leaves no trace on running balances
	assert.True(t, balanceOf(t, snapshot, "Assets:Cash", "USD").IsZero())
}

func TestMultipleElisions(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Food USD
1970-01-01 open Expenses:Tips USD
2023-01-02 * "coffee"
  Assets:Cash -3.50 USD
  Expenses:Food
  Expenses:Tips
`)

	assert.Equal(t, []string{"MultipleElisions"}, diagnosticKinds(snapshot))
}

func TestUnresolvableElision(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash
1970-01-01 open Expenses:Mixed
2023-01-02 * "mixed"
  Assets:Cash -3.50 USD
  Assets:Cash -2.00 EUR
  Expenses:Mixed
`)

	assert.Equal(t, []string{"UnresolvableElision"}, diagnosticKinds(snapshot))
}

func TestCommodityNotAllowed(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Food
2023-01-02 * "coffee"
  Assets:Cash -3.50 EUR
  Expenses:Food 3.50 EUR
`)

	assert.Equal(t, []string{"CommodityNotAllowed"}, diagnosticKinds(snapshot))
}

func TestUnknownAccount(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
2023-01-02 * "coffee"
  Assets:Cash -3.50 USD
  Expenses:Food
`)

	assert.Equal(t, []string{"UnknownAccount"}, diagnosticKinds(snapshot))
}

func TestDuplicateOpen(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1980-01-01 open Assets:Cash USD
`)

	assert.Equal(t, []string{"DuplicateOpen"}, diagnosticKinds(snapshot))
}

func TestCloseUnopenedAccount(t *testing.T) {
	snapshot := evaluateString(t, `
2023-01-01 close Assets:Cash
`)

	assert.Equal(t, []string{"UnknownAccount"}, diagnosticKinds(snapshot))
}

func TestCloseNonZeroAccount(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Equity:Opening USD
2023-01-02 * "opening"
  Assets:Cash 10.00 USD
  Equity:Opening
2023-02-01 close Assets:Cash
`)

	assert.Equal(t, []string{"CloseNonZeroAccount"}, diagnosticKinds(snapshot))
}

func TestCostLotsTrackFIFO(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Brokerage
1970-01-01 open Assets:Cash USD
1970-01-01 open Income:Gains USD
2023-01-02 * "buy cheap"
  Assets:Brokerage 10 SPY {100.00 USD, 2023-01-02}
  Assets:Cash -1000.00 USD
2023-02-02 * "buy dear"
  Assets:Brokerage 10 SPY {200.00 USD, 2023-02-02}
  Assets:Cash -2000.00 USD
2023-03-02 * "sell"
  Assets:Brokerage -5 SPY {100.00 USD}
  Assets:Cash 500.00 USD
`)

	assert.Equal(t, 0, len(snapshot.Diagnostics), "unexpected diagnostics: %v", snapshot.Diagnostics)

	account, _ := snapshot.Account("Assets:Brokerage")
	assert.True(t, account.Inventory.Get("SPY").Equal(decimal.NewFromInt(15)))

	lots := account.Inventory.Lots("SPY")
	assert.Equal(t, 2, len(lots))
	// FIFO reduced the oldest lot first
	assert.True(t, lots[0].Units.Equal(decimal.NewFromInt(5)))
	assert.True(t, lots[1].Units.Equal(decimal.NewFromInt(10)))
}

func TestCostPriceMismatch(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Brokerage
1970-01-01 open Assets:Cash USD
2023-01-02 * "buy with stale price"
  Assets:Brokerage 10 SPY {100.00 USD} @ 90.00 USD
  Assets:Cash -1000.00 USD
`)

	assert.Equal(t, []string{"CostPriceMismatch"}, diagnosticKinds(snapshot))
}

func TestOptionsApplied(t *testing.T) {
	snapshot := evaluateString(t, `
option "title" "Example"
option "operating_currency" "USD"
option "custom_key" "kept"
`)

	assert.Equal(t, "Example", snapshot.Options.Title)
	assert.Equal(t, "USD", snapshot.Options.OperatingCurrency)
	assert.Equal(t, "kept", snapshot.Options.Get("custom_key"))
}

func TestOptionsDefaults(t *testing.T) {
	snapshot := evaluateString(t, `option "title" "Example"`)

	assert.Equal(t, "CNY", snapshot.Options.OperatingCurrency)
	assert.Equal(t, RoundDown, snapshot.Options.DefaultRounding)
	assert.Equal(t, int32(2), snapshot.Options.TolerancePrecision)
}

func TestOptionsLastValueWins(t *testing.T) {
	snapshot := evaluateString(t, `
option "title" "Example"
option "title" "Example2"
`)

	assert.Equal(t, "Example2", snapshot.Options.Title)
	assert.Equal(t, []string{"Example", "Example2"}, snapshot.Options.All["title"])
}

func TestCommodityPrecisionOverridesDefault(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 commodity BTC
  precision: 8
1970-01-01 open Assets:Wallet BTC
2023-01-05 balance Assets:Wallet 0.00000100 BTC
`)

	// With precision 8 the tolerance shrinks to 5e-9, so the zero balance
	// fails the assertion.
	assert.Equal(t, []string{"AssertionFailed"}, diagnosticKinds(snapshot))
}

func TestRunningBalanceMatchesPostingSums(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Food USD
1970-01-01 open Equity:Opening USD
2023-01-01 * "opening"
  Assets:Cash 100.00 USD
  Equity:Opening
2023-01-02 * "coffee"
  Assets:Cash -3.50 USD
  Expenses:Food
2023-01-03 * "more coffee"
  Assets:Cash -4.25 USD
  Expenses:Food
`)

	total := decimal.Zero
	for _, txn := range snapshot.Journal {
		for _, posting := range txn.Postings {
			if posting.Account == "Assets:Cash" {
				total = total.Add(MustParseAmount(posting.Amount))
			}
		}
	}
	assert.True(t, balanceOf(t, snapshot, "Assets:Cash", "USD").Equal(total))
}

func TestStatisticsDailyAndMonthly(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Income:Salary USD
1970-01-01 open Expenses:Food USD
2023-01-05 * "payday"
  Assets:Cash 1000.00 USD
  Income:Salary
2023-01-06 * "groceries"
  Assets:Cash -50.00 USD
  Expenses:Food
2023-02-01 * "groceries"
  Assets:Cash -25.00 USD
  Expenses:Food
`)

	stats := snapshot.Stats
	assert.Equal(t, 3, len(stats.Daily))
	assert.Equal(t, 2, len(stats.Monthly))

	january := stats.Monthly[0]
	assert.Equal(t, "2023-01", january.Period)
	assert.True(t, january.Income["USD"].Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, january.Expense["USD"].Equal(decimal.RequireFromString("50.00")))
	assert.True(t, january.NetWorth["USD"].Equal(decimal.RequireFromString("950.00")))

	february := stats.Monthly[1]
	assert.True(t, february.NetWorth["USD"].Equal(decimal.RequireFromString("925.00")))
}

func TestLoaderErrorsFlowThrough(t *testing.T) {
	tree, errs := parser.ParseString("test.zhang", "1970-01-01 open Broken\n")
	l := New()
	for _, err := range errs {
		l.AddErrors(err)
	}
	l.Process(context.Background(), tree)
	snapshot := l.Snapshot()

	assert.Equal(t, []string{"ParseError"}, diagnosticKinds(snapshot))
}

func TestDatetimeOrderingWithinDay(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Cash USD
1970-01-01 open Expenses:Food USD
2023-01-02 13:00:00 * "lunch"
  Assets:Cash -10.00 USD
  Expenses:Food
2023-01-02 09:00:00 * "breakfast"
  Assets:Cash -5.00 USD
  Expenses:Food
`)

	assert.Equal(t, 0, len(snapshot.Diagnostics))
	assert.Equal(t, "2023-01-02 09:00:00", snapshot.Journal[0].Date.String())
	assert.Equal(t, "2023-01-02 13:00:00", snapshot.Journal[1].Date.String())
}

func TestEventAndDocumentCollected(t *testing.T) {
	snapshot := evaluateString(t, `
1970-01-01 open Assets:Bank USD
2023-01-01 event "location" "Shanghai"
2023-01-02 document Assets:Bank "statements/jan.pdf"
`)

	assert.Equal(t, 1, len(snapshot.Events))
	assert.Equal(t, 1, len(snapshot.Documents))
	assert.Equal(t, "statements/jan.pdf", snapshot.Documents[0].Path)
	assert.Equal(t, ast.Account("Assets:Bank"), snapshot.Documents[0].Account)
}
