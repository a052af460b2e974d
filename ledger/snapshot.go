package ledger

import (
	"sort"

	"github.com/KushNee/zhang/ast"
)

// Snapshot is the immutable output of one evaluator run: account registry,
// resolved journal, price database, diagnostics, documents, and derived
// statistics. The controller swaps whole snapshots atomically; readers never
// observe a partial state.
type Snapshot struct {
	Version     uint64
	Options     *Options
	Accounts    []*Account
	Journal     []*ast.Transaction
	Directives  ast.Directives
	Prices      *PriceDB
	Documents   []*DocumentRef
	Events      []*ast.Event
	Diagnostics []Diagnostic
	Stats       *Statistics
	Commodities []*CommodityInfo
}

// Snapshot assembles the immutable value for the state built so far.
// Account, commodity, and document listings are sorted so the output is
// byte-identical across runs of the same input.
func (l *Ledger) Snapshot() *Snapshot {
	accounts := make([]*Account, 0, len(l.accounts))
	for _, account := range l.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Name < accounts[j].Name
	})

	commodities := make([]*CommodityInfo, 0, len(l.commodities))
	for _, info := range l.commodities {
		commodities = append(commodities, info)
	}
	sort.Slice(commodities, func(i, j int) bool {
		return commodities[i].Name < commodities[j].Name
	})

	documents := make([]*DocumentRef, len(l.documents))
	copy(documents, l.documents)
	sort.SliceStable(documents, func(i, j int) bool {
		return documents[i].Date.SortKey() < documents[j].Date.SortKey()
	})

	return &Snapshot{
		Options:     l.options,
		Accounts:    accounts,
		Journal:     l.journal,
		Directives:  l.directives,
		Prices:      l.prices,
		Documents:   documents,
		Events:      l.events,
		Diagnostics: l.diagnostics,
		Stats:       computeStatistics(l.journal, l.accounts, l.options, l.prices),
		Commodities: commodities,
	}
}

// Account looks up an account in the snapshot by name.
func (s *Snapshot) Account(name string) (*Account, bool) {
	idx := sort.Search(len(s.Accounts), func(i int) bool {
		return string(s.Accounts[i].Name) >= name
	})
	if idx < len(s.Accounts) && string(s.Accounts[idx].Name) == name {
		return s.Accounts[idx], true
	}
	return nil, false
}

// HasErrors reports whether any diagnostics were collected.
func (s *Snapshot) HasErrors() bool {
	return len(s.Diagnostics) > 0
}
