package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
)

// Lot is an inventory unit held at an acquisition cost, used for cost-basis
// bookkeeping.
type Lot struct {
	Units         decimal.Decimal
	Commodity     string
	CostNumber    decimal.Decimal
	CostCommodity string
	Date          *ast.Date
}

// Inventory tracks an account's running balance per commodity plus the
// ordered multiset of cost lots. Lots exist only for postings written with a
// cost clause; the plain running totals cover every posting.
type Inventory struct {
	totals map[string]decimal.Decimal
	lots   map[string][]*Lot
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		totals: make(map[string]decimal.Decimal),
		lots:   make(map[string][]*Lot),
	}
}

// Add adds units of a commodity to the running total.
func (inv *Inventory) Add(commodity string, units decimal.Decimal) {
	inv.totals[commodity] = inv.totals[commodity].Add(units)
}

// AddLot records an acquisition at cost and updates the running total.
// Lots with identical cost and date merge.
func (inv *Inventory) AddLot(commodity string, units, costNumber decimal.Decimal, costCommodity string, date *ast.Date) {
	inv.Add(commodity, units)

	for _, lot := range inv.lots[commodity] {
		if lot.CostCommodity == costCommodity && lot.CostNumber.Equal(costNumber) && sameDate(lot.Date, date) {
			lot.Units = lot.Units.Add(units)
			return
		}
	}

	inv.lots[commodity] = append(inv.lots[commodity], &Lot{
		Units:         units,
		Commodity:     commodity,
		CostNumber:    costNumber,
		CostCommodity: costCommodity,
		Date:          date,
	})
}

// Reduce removes units of a costed commodity, selecting lots FIFO by lot
// date. When lotDate is non-nil only lots acquired on that date are touched.
// The running total always decreases by the full amount; lots absorb as much
// as they hold.
func (inv *Inventory) Reduce(commodity string, units decimal.Decimal, lotDate *ast.Date) {
	inv.Add(commodity, units.Neg())

	remaining := units
	lots := inv.lots[commodity]

	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].Date.SortKey() < lots[j].Date.SortKey()
	})

	kept := lots[:0]
	for _, lot := range lots {
		if remaining.IsPositive() && (lotDate == nil || sameDate(lot.Date, lotDate)) {
			take := decimal.Min(lot.Units, remaining)
			lot.Units = lot.Units.Sub(take)
			remaining = remaining.Sub(take)
		}
		if !lot.Units.IsZero() {
			kept = append(kept, lot)
		}
	}

	if len(kept) == 0 {
		delete(inv.lots, commodity)
	} else {
		inv.lots[commodity] = kept
	}
}

// Get returns the running total of a commodity.
func (inv *Inventory) Get(commodity string) decimal.Decimal {
	return inv.totals[commodity]
}

// Lots returns the lots held for a commodity, oldest first.
func (inv *Inventory) Lots(commodity string) []*Lot {
	lots := inv.lots[commodity]
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].Date.SortKey() < lots[j].Date.SortKey()
	})
	return lots
}

// Commodities returns the commodities with a non-zero running total, sorted.
func (inv *Inventory) Commodities() []string {
	commodities := make([]string, 0, len(inv.totals))
	for commodity, total := range inv.totals {
		if !total.IsZero() {
			commodities = append(commodities, commodity)
		}
	}
	sort.Strings(commodities)
	return commodities
}

// IsEmpty reports whether every running total is zero.
func (inv *Inventory) IsEmpty() bool {
	for _, total := range inv.totals {
		if !total.IsZero() {
			return false
		}
	}
	return true
}

// Balances returns a copy of the non-zero running totals.
func (inv *Inventory) Balances() map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(inv.totals))
	for commodity, total := range inv.totals {
		if !total.IsZero() {
			balances[commodity] = total
		}
	}
	return balances
}

// String renders the inventory as "{10 SPY, 3.5 USD}" for debugging.
func (inv *Inventory) String() string {
	commodities := inv.Commodities()
	if len(commodities) == 0 {
		return "{}"
	}

	var b strings.Builder
	b.WriteByte('{')
	for i, commodity := range commodities {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(inv.totals[commodity].String())
		b.WriteByte(' ')
		b.WriteString(commodity)
	}
	b.WriteByte('}')
	return b.String()
}

func sameDate(a, b *ast.Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.SortKey() == b.SortKey()
}
