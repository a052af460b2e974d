package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
)

// Statistics are derived figures per day and per month: income and expense
// flow, plus the running net worth (assets and liabilities) at the end of
// the period. Flows are tracked per commodity; net worth additionally comes
// converted into the operating currency where a price route exists.
type Statistics struct {
	Daily   []*StatPoint
	Monthly []*StatPoint
}

// StatPoint is the figures of one period. Period is "2006-01-02" for daily
// points and "2006-01" for monthly ones.
type StatPoint struct {
	Period            string
	Income            map[string]decimal.Decimal
	Expense           map[string]decimal.Decimal
	NetWorth          map[string]decimal.Decimal
	NetWorthOperating decimal.Decimal
}

// Commodities returns the sorted commodities present in any figure of the
// point, for deterministic rendering.
func (p *StatPoint) Commodities() []string {
	set := make(map[string]bool)
	for c := range p.Income {
		set[c] = true
	}
	for c := range p.Expense {
		set[c] = true
	}
	for c := range p.NetWorth {
		set[c] = true
	}

	commodities := make([]string, 0, len(set))
	for c := range set {
		commodities = append(commodities, c)
	}
	sort.Strings(commodities)
	return commodities
}

// computeStatistics walks the resolved journal in date order and accumulates
// per-day figures, then folds days into months.
func computeStatistics(journal []*ast.Transaction, accounts map[string]*Account, options *Options, prices *PriceDB) *Statistics {
	stats := &Statistics{}
	if len(journal) == 0 {
		return stats
	}

	// Generated pad transactions enter the journal next to their assertion,
	// which may be out of date order; statistics always walk by date.
	sorted := make([]*ast.Transaction, len(journal))
	copy(sorted, journal)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.SortKey() < sorted[j].Date.SortKey()
	})
	journal = sorted

	netWorth := make(map[string]decimal.Decimal)

	var current *StatPoint
	var currentDay string
	var lastDate *ast.Date

	flush := func() {
		if current == nil {
			return
		}
		current.NetWorth = copyBalances(netWorth)
		current.NetWorthOperating = convertTotal(netWorth, options.OperatingCurrency, lastDate, prices)
		stats.Daily = append(stats.Daily, current)
	}

	for _, txn := range journal {
		day := txn.Date.Format("2006-01-02")
		if day != currentDay {
			flush()
			current = &StatPoint{
				Period:  day,
				Income:  make(map[string]decimal.Decimal),
				Expense: make(map[string]decimal.Decimal),
			}
			currentDay = day
		}
		lastDate = txn.Date

		for _, posting := range txn.Postings {
			if posting.Amount == nil {
				continue
			}
			units, err := ParseAmount(posting.Amount)
			if err != nil {
				continue
			}
			commodity := posting.Amount.Commodity

			switch accountTypeOf(posting.Account, accounts) {
			case AccountTypeIncome:
				// Income accounts accumulate negative amounts; report the flow positive
				current.Income[commodity] = current.Income[commodity].Sub(units)
			case AccountTypeExpenses:
				current.Expense[commodity] = current.Expense[commodity].Add(units)
			case AccountTypeAssets, AccountTypeLiabilities:
				netWorth[commodity] = netWorth[commodity].Add(units)
			}
		}
	}
	flush()

	stats.Monthly = foldMonthly(stats.Daily)
	return stats
}

// foldMonthly aggregates daily points into monthly ones. Flows sum; net
// worth takes the month's final value.
func foldMonthly(daily []*StatPoint) []*StatPoint {
	var monthly []*StatPoint
	var current *StatPoint

	for _, day := range daily {
		month := day.Period[:7]
		if current == nil || current.Period != month {
			current = &StatPoint{
				Period:  month,
				Income:  make(map[string]decimal.Decimal),
				Expense: make(map[string]decimal.Decimal),
			}
			monthly = append(monthly, current)
		}

		for commodity, amount := range day.Income {
			current.Income[commodity] = current.Income[commodity].Add(amount)
		}
		for commodity, amount := range day.Expense {
			current.Expense[commodity] = current.Expense[commodity].Add(amount)
		}
		current.NetWorth = day.NetWorth
		current.NetWorthOperating = day.NetWorthOperating
	}

	return monthly
}

// convertTotal sums balances into the operating currency, skipping
// commodities with no price route.
func convertTotal(balances map[string]decimal.Decimal, operating string, asof *ast.Date, prices *PriceDB) decimal.Decimal {
	total := decimal.Zero
	for _, commodity := range sortedBalanceKeys(balances) {
		if converted, ok := prices.Convert(balances[commodity], commodity, operating, asof); ok {
			total = total.Add(converted)
		}
	}
	return total
}

func accountTypeOf(account ast.Account, accounts map[string]*Account) AccountType {
	if state, ok := accounts[string(account)]; ok {
		return state.Type
	}
	return ParseAccountType(account)
}

func copyBalances(balances map[string]decimal.Decimal) map[string]decimal.Decimal {
	copied := make(map[string]decimal.Decimal, len(balances))
	for commodity, amount := range balances {
		if !amount.IsZero() {
			copied[commodity] = amount
		}
	}
	return copied
}

func sortedBalanceKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
