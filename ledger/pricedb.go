package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
)

// PriceDB is a directed graph of commodity pairs, each edge carrying a
// date-indexed list of rates. Lookups use forward-fill semantics: the most
// recent rate on or before the requested instant.
type PriceDB struct {
	edges map[string]map[string][]pricePoint
}

type pricePoint struct {
	date *ast.Date
	rate decimal.Decimal
}

// NewPriceDB creates an empty price database.
func NewPriceDB() *PriceDB {
	return &PriceDB{
		edges: make(map[string]map[string][]pricePoint),
	}
}

// AddPrice records a rate for the base->quote pair at a date. Inserts are
// idempotent: an identical (date, pair, rate) entry merges silently.
func (db *PriceDB) AddPrice(date *ast.Date, base, quote string, rate decimal.Decimal) {
	if db.edges[base] == nil {
		db.edges[base] = make(map[string][]pricePoint)
	}

	points := db.edges[base][quote]
	key := date.SortKey()

	idx := sort.Search(len(points), func(i int) bool {
		return points[i].date.SortKey() >= key
	})

	if idx < len(points) && points[idx].date.SortKey() == key {
		if points[idx].rate.Equal(rate) {
			return // identical entry, merge
		}
		// Same instant, different rate: the later directive wins
		points[idx].rate = rate
		return
	}

	points = append(points, pricePoint{})
	copy(points[idx+1:], points[idx:])
	points[idx] = pricePoint{date: date, rate: rate}
	db.edges[base][quote] = points
}

// RateAt returns the most recent rate for base->quote on or before asof.
func (db *PriceDB) RateAt(base, quote string, asof *ast.Date) (decimal.Decimal, *ast.Date, bool) {
	points := db.edges[base][quote]
	key := asof.SortKey()

	// Last point with date <= asof
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].date.SortKey() > key
	})
	if idx == 0 {
		return decimal.Zero, nil, false
	}

	point := points[idx-1]
	return point.rate, point.date, true
}

// Convert converts an amount between commodities as of a date, following the
// shortest path by edge count. Between equal-length paths the one whose
// stalest rate is most recent wins. Returns false when no route exists.
func (db *PriceDB) Convert(amount decimal.Decimal, from, to string, asof *ast.Date) (decimal.Decimal, bool) {
	if from == to {
		return amount, true
	}

	type route struct {
		factor decimal.Decimal
		oldest string // sort key of the stalest rate along the path
	}

	visited := map[string]bool{from: true}
	frontier := map[string]route{from: {factor: decimal.NewFromInt(1), oldest: "~"}}

	for len(frontier) > 0 {
		next := make(map[string]route)

		for _, commodity := range sortedRouteKeys(frontier) {
			current := frontier[commodity]

			for _, neighbor := range db.neighbors(commodity) {
				if visited[neighbor] {
					continue
				}

				rate, rateDate, ok := db.RateAt(commodity, neighbor, asof)
				if !ok {
					continue
				}

				candidate := route{
					factor: current.factor.Mul(rate),
					oldest: minKey(current.oldest, rateDate.SortKey()),
				}

				if best, seen := next[neighbor]; !seen || candidate.oldest > best.oldest {
					next[neighbor] = candidate
				}
			}
		}

		if target, ok := next[to]; ok {
			return amount.Mul(target.factor), true
		}

		for commodity := range next {
			visited[commodity] = true
		}
		frontier = next
	}

	return decimal.Zero, false
}

// Pairs returns every (base, quote) pair in the graph, sorted.
func (db *PriceDB) Pairs() [][2]string {
	var pairs [][2]string
	for _, base := range sortedEdgeKeys(db.edges) {
		quotes := make([]string, 0, len(db.edges[base]))
		for quote := range db.edges[base] {
			quotes = append(quotes, quote)
		}
		sort.Strings(quotes)
		for _, quote := range quotes {
			pairs = append(pairs, [2]string{base, quote})
		}
	}
	return pairs
}

func (db *PriceDB) neighbors(commodity string) []string {
	quotes := make([]string, 0, len(db.edges[commodity]))
	for quote := range db.edges[commodity] {
		quotes = append(quotes, quote)
	}
	sort.Strings(quotes)
	return quotes
}

func sortedRouteKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedEdgeKeys(m map[string]map[string][]pricePoint) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func minKey(a, b string) string {
	if a < b {
		return a
	}
	return b
}
