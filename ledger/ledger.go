// Package ledger evaluates a directive tree into account states, a resolved
// journal, and diagnostics. It replays directives in date order, infers
// elided posting amounts, checks balance assertions (generating pad
// transactions where requested), tracks cost lots, and maintains the price
// database.
//
// The evaluator never aborts on a bookkeeping problem: every diagnostic is
// collected and the replay continues, so one bad transaction doesn't hide
// the rest of the file. The same directive sequence always produces an
// identical snapshot.
//
// Example usage:
//
//	result, err := loader.New().Load(ctx, "main.zhang")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	l := ledger.New()
//	l.AddErrors(result.Errs...)
//	l.Process(ctx, result.AST)
//	snapshot := l.Snapshot()
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KushNee/zhang/ast"
	"github.com/KushNee/zhang/telemetry"
)

// Ledger accumulates evaluated state while replaying directives.
type Ledger struct {
	options     *Options
	commodities map[string]*CommodityInfo
	accounts    map[string]*Account
	journal     []*ast.Transaction
	directives  ast.Directives
	prices      *PriceDB
	documents   []*DocumentRef
	events      []*ast.Event
	diagnostics []Diagnostic
}

// CommodityInfo is the evaluated attributes of a declared commodity.
type CommodityInfo struct {
	Name      string
	Precision int32
	Rounding  Rounding
	Metadata  []*ast.Metadata
}

// DocumentRef is one entry of the document list: a blob attached to an
// account by a document directive. Posting metadata is not scanned for
// document paths.
type DocumentRef struct {
	Date    *ast.Date
	Account ast.Account
	Path    string
}

// New creates a new empty ledger.
func New() *Ledger {
	return &Ledger{
		options:     NewOptions(),
		commodities: make(map[string]*CommodityInfo),
		accounts:    make(map[string]*Account),
		prices:      NewPriceDB(),
	}
}

// AddErrors records diagnostics gathered before evaluation (parse and
// include problems from the loader).
func (l *Ledger) AddErrors(errs ...error) {
	for _, err := range errs {
		l.diagnostics = append(l.diagnostics, AsDiagnostic(err))
	}
}

// Process replays a directive tree and builds the ledger state. Options are
// applied first, then directives in (date, source order). The tree's
// directives are expected sorted; Process sorts defensively anyway.
func (l *Ledger) Process(ctx context.Context, tree *ast.AST) {
	for _, opt := range tree.Options {
		if err := l.options.Set(opt.Key, opt.Value); err != nil {
			l.diagnostics = append(l.diagnostics, &InvalidOptionError{Pos: opt.Pos, Key: opt.Key, Value: opt.Value, Err: err})
		}
	}

	ast.SortDirectives(tree)

	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("ledger.process (%d directives)", len(tree.Directives)))
	defer timer.End()

	for _, directive := range tree.Directives {
		if ctx.Err() != nil {
			return
		}
		l.processDirective(directive)
	}
}

// Diagnostics returns all collected diagnostics.
func (l *Ledger) Diagnostics() []Diagnostic {
	return l.diagnostics
}

// GetAccount returns an account by name.
func (l *Ledger) GetAccount(name string) (*Account, bool) {
	account, ok := l.accounts[name]
	return account, ok
}

// Options returns the evaluated option table.
func (l *Ledger) Options() *Options {
	return l.options
}

// Prices returns the price database.
func (l *Ledger) Prices() *PriceDB {
	return l.prices
}

func (l *Ledger) processDirective(directive ast.Directive) {
	switch d := directive.(type) {
	case *ast.Open:
		l.processOpen(d)
	case *ast.Close:
		l.processClose(d)
	case *ast.Commodity:
		l.processCommodity(d)
	case *ast.Price:
		l.processPrice(d)
	case *ast.Transaction:
		l.processTransaction(d)
	case *ast.Balance:
		l.processBalance(d)
	case *ast.Document:
		l.processDocument(d)
	case *ast.Note:
		l.checkAccountRef(d.Account, d.Position(), d.Date)
		l.directives = append(l.directives, d)
	case *ast.Event:
		l.events = append(l.events, d)
		l.directives = append(l.directives, d)
	default:
		// custom and future directive kinds carry no ledger semantics
		l.directives = append(l.directives, directive)
	}
}

func (l *Ledger) processOpen(open *ast.Open) {
	name := string(open.Account)
	if _, exists := l.accounts[name]; exists {
		l.addDiagnostic(&DuplicateOpenError{Pos: open.Pos, Account: open.Account})
		return
	}

	l.accounts[name] = &Account{
		Name:        open.Account,
		Type:        ParseAccountType(open.Account),
		OpenDate:    open.Date,
		Commodities: open.Commodities,
		Metadata:    open.Metadata,
		Inventory:   NewInventory(),
	}
	l.directives = append(l.directives, open)
}

func (l *Ledger) processClose(close *ast.Close) {
	account, exists := l.accounts[string(close.Account)]
	if !exists {
		l.addDiagnostic(&UnknownAccountError{Pos: close.Pos, Account: close.Account})
		return
	}
	if account.IsClosed() {
		l.addDiagnostic(&AccountClosedError{Pos: close.Pos, Account: close.Account, Closed: account.CloseDate})
		return
	}
	if !account.Inventory.IsEmpty() {
		l.addDiagnostic(&CloseNonZeroAccountError{Pos: close.Pos, Account: close.Account})
	}

	account.CloseDate = close.Date
	l.directives = append(l.directives, close)
}

func (l *Ledger) processCommodity(commodity *ast.Commodity) {
	info := &CommodityInfo{
		Name:      commodity.Name,
		Precision: l.options.TolerancePrecision,
		Rounding:  l.options.DefaultRounding,
		Metadata:  commodity.Metadata,
	}

	if value := commodity.Meta("precision"); value != "" {
		if precision, err := strconv.ParseInt(value, 10, 32); err == nil {
			info.Precision = int32(precision)
		}
	}
	if value := commodity.Meta("rounding"); value != "" {
		if rounding, err := ParseRounding(value); err == nil {
			info.Rounding = rounding
		}
	}

	l.commodities[commodity.Name] = info
	l.directives = append(l.directives, commodity)
}

func (l *Ledger) processPrice(price *ast.Price) {
	rate, err := ParseAmount(price.Amount)
	if err != nil {
		l.addDiagnostic(&InvalidAmountError{Pos: price.Pos, Value: price.Amount.Value})
		return
	}

	l.prices.AddPrice(price.Date, price.Base, price.Amount.Commodity, rate)
	l.directives = append(l.directives, price)
}

func (l *Ledger) processDocument(doc *ast.Document) {
	l.checkAccountRef(doc.Account, doc.Position(), doc.Date)
	l.documents = append(l.documents, &DocumentRef{
		Date:    doc.Date,
		Account: doc.Account,
		Path:    doc.Path,
	})
	l.directives = append(l.directives, doc)
}

// processTransaction resolves postings, runs bookkeeping checks, and applies
// the inventory updates. A transaction with diagnostics is recorded but its
// postings do not touch any running balance.
func (l *Ledger) processTransaction(txn *ast.Transaction) {
	errs := l.resolvePostings(txn)
	errs = append(errs, l.checkBookkeeping(txn)...)

	if len(errs) > 0 {
		l.addDiagnostic(errs...)
		l.directives = append(l.directives, txn)
		return
	}

	l.applyTransaction(txn)
	l.journal = append(l.journal, txn)
	l.directives = append(l.directives, txn)
}

// resolvePostings computes posting weights, fills the elided posting, and
// checks that every commodity nets to zero within tolerance.
func (l *Ledger) resolvePostings(txn *ast.Transaction) []Diagnostic {
	var errs []Diagnostic

	var elided []*ast.Posting
	residuals := make(map[string]decimal.Decimal)

	for _, posting := range txn.Postings {
		if posting.Amount == nil {
			elided = append(elided, posting)
			continue
		}

		w, err := postingWeight(posting)
		if err != nil {
			errs = append(errs, &InvalidAmountError{Pos: posting.Pos, Value: posting.Amount.Value})
			continue
		}
		residuals[w.Commodity] = residuals[w.Commodity].Add(w.Amount)

		// A posting carrying both cost and price keeps the cost as the
		// authoritative weight, but the two must agree.
		if gap, comparable := costPriceGap(posting); comparable {
			if gap.GreaterThan(l.toleranceFor(posting.Cost.Amount.Commodity)) {
				errs = append(errs, &CostPriceMismatchError{
					Pos:   posting.Pos,
					Cost:  posting.Cost.Amount.String(),
					Price: posting.Price.String(),
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	open := residualCommodities(residuals, l.toleranceFor)

	switch {
	case len(elided) > 1:
		errs = append(errs, &MultipleElisionsError{Pos: txn.Pos})
		return errs

	case len(elided) == 1:
		switch len(open) {
		case 0:
			// Nothing to absorb; the posting stays empty
		case 1:
			commodity := open[0]
			needed := residuals[commodity].Neg()
			elided[0].Amount = &ast.Amount{
				Value:     needed.String(),
				Commodity: commodity,
			}
			elided[0].Inferred = true
			residuals[commodity] = decimal.Zero
		default:
			errs = append(errs, &UnresolvableElisionError{Pos: elided[0].Pos, Commodities: open})
			return errs
		}
	}

	if remaining := residualCommodities(residuals, l.toleranceFor); len(remaining) > 0 {
		rendered := make(map[string]string, len(remaining))
		for _, commodity := range remaining {
			rendered[commodity] = residuals[commodity].String()
		}
		errs = append(errs, &TransactionUnbalancedError{Pos: txn.Pos, Residuals: rendered})
	}

	return errs
}

// checkBookkeeping verifies each posting against the account registry:
// the account must exist and be open on the transaction date, and its
// commodity must be permitted.
func (l *Ledger) checkBookkeeping(txn *ast.Transaction) []Diagnostic {
	var errs []Diagnostic

	for _, posting := range txn.Postings {
		account, exists := l.accounts[string(posting.Account)]
		if !exists {
			errs = append(errs, &UnknownAccountError{Pos: posting.Pos, Account: posting.Account})
			continue
		}

		if !account.IsOpen(txn.Date) {
			if account.CloseDate != nil && txn.Date.SortKey() > account.CloseDate.SortKey() {
				errs = append(errs, &AccountClosedError{Pos: posting.Pos, Account: posting.Account, Closed: account.CloseDate})
			} else {
				errs = append(errs, &UnknownAccountError{Pos: posting.Pos, Account: posting.Account})
			}
			continue
		}

		if posting.Amount != nil && !account.Allows(posting.Amount.Commodity) {
			errs = append(errs, &CommodityNotAllowedError{
				Pos:       posting.Pos,
				Account:   posting.Account,
				Commodity: posting.Amount.Commodity,
				Allowed:   account.Commodities,
			})
		}
	}

	return errs
}

// applyTransaction updates running balances and cost lots. Validation has
// already passed; every account exists.
func (l *Ledger) applyTransaction(txn *ast.Transaction) {
	for _, posting := range txn.Postings {
		if posting.Amount == nil {
			continue
		}

		account := l.accounts[string(posting.Account)]
		units := MustParseAmount(posting.Amount)
		commodity := posting.Amount.Commodity

		if posting.Cost != nil {
			costNumber := MustParseAmount(posting.Cost.Amount)
			lotDate := posting.Cost.Date
			if lotDate == nil {
				lotDate = txn.Date
			}

			if units.IsNegative() {
				// Reductions pick lots FIFO unless a lot date is named,
				// either in the cost clause or via posting metadata.
				selector := posting.Cost.Date
				if selector == nil {
					selector = lotDateFromMetadata(posting)
				}
				account.Inventory.Reduce(commodity, units.Abs(), selector)
			} else {
				account.Inventory.AddLot(commodity, units, costNumber, posting.Cost.Amount.Commodity, lotDate)
			}
			continue
		}

		account.Inventory.Add(commodity, units)
	}
}

// processBalance evaluates a balance assertion against the running total
// just before the directive's instant. With a pad account, the difference is
// absorbed by a generated transaction dated one second before the assertion.
func (l *Ledger) processBalance(balance *ast.Balance) {
	account, exists := l.accounts[string(balance.Account)]
	if !exists {
		l.addDiagnostic(&UnknownAccountError{Pos: balance.Pos, Account: balance.Account})
		return
	}

	expected, err := ParseAmount(balance.Amount)
	if err != nil {
		l.addDiagnostic(&InvalidAmountError{Pos: balance.Pos, Value: balance.Amount.Value})
		return
	}

	commodity := balance.Amount.Commodity
	actual := account.Inventory.Get(commodity)
	tolerance := l.toleranceFor(commodity)

	if WithinTolerance(actual, expected, tolerance) {
		l.directives = append(l.directives, balance)
		return
	}

	if balance.HasPad() {
		pad, exists := l.accounts[string(balance.Pad)]
		if !exists {
			l.addDiagnostic(&UnknownAccountError{Pos: balance.Pos, Account: balance.Pad})
			return
		}

		diff := expected.Sub(actual)
		padTxn := l.buildPadTransaction(balance, diff)

		account.Inventory.Add(commodity, diff)
		pad.Inventory.Add(commodity, diff.Neg())

		l.journal = append(l.journal, padTxn)
		l.directives = append(l.directives, padTxn, balance)
		return
	}

	l.addDiagnostic(&AssertionFailedError{
		Pos:      balance.Pos,
		Account:  balance.Account,
		Expected: expected.String(),
		Actual:   actual.String(),
		Currency: commodity,
	})
	l.directives = append(l.directives, balance)
}

// buildPadTransaction creates the compensating transaction for a padded
// assertion, dated one second before the assertion's instant.
func (l *Ledger) buildPadTransaction(balance *ast.Balance, diff decimal.Decimal) *ast.Transaction {
	date := &ast.Date{
		Time:      balance.Date.Add(-time.Second),
		Precision: ast.PrecisionSecond,
	}

	commodity := balance.Amount.Commodity

	return &ast.Transaction{
		Pos:       balance.Pos,
		Date:      date,
		Flag:      "*",
		Narration: fmt.Sprintf("pad %s to %s %s", balance.Account, balance.Amount.Value, commodity),
		Postings: []*ast.Posting{
			{
				Account:  balance.Account,
				Amount:   &ast.Amount{Value: diff.String(), Commodity: commodity},
				Inferred: true,
			},
			{
				Account:  balance.Pad,
				Amount:   &ast.Amount{Value: diff.Neg().String(), Commodity: commodity},
				Inferred: true,
			},
		},
	}
}

// checkAccountRef validates an account reference on note and document
// directives without mutating anything.
func (l *Ledger) checkAccountRef(account ast.Account, pos ast.Span, date *ast.Date) {
	state, exists := l.accounts[string(account)]
	if !exists {
		l.addDiagnostic(&UnknownAccountError{Pos: pos, Account: account})
		return
	}
	if state.CloseDate != nil && date.SortKey() > state.CloseDate.SortKey() {
		l.addDiagnostic(&AccountClosedError{Pos: pos, Account: account, Closed: state.CloseDate})
	}
}

// toleranceFor derives the balance tolerance for a commodity: half the step
// of its declared precision, falling back to the option default.
func (l *Ledger) toleranceFor(commodity string) decimal.Decimal {
	precision := l.options.TolerancePrecision
	if info, ok := l.commodities[commodity]; ok {
		precision = info.Precision
	}
	return Tolerance(precision)
}

// residualCommodities returns the commodities whose residual exceeds their
// tolerance, sorted for determinism.
func residualCommodities(residuals map[string]decimal.Decimal, tolerance func(string) decimal.Decimal) []string {
	rendered := make(map[string]string, len(residuals))
	for commodity, residual := range residuals {
		if residual.Abs().GreaterThan(tolerance(commodity)) {
			rendered[commodity] = residual.String()
		}
	}
	return sortedKeys(rendered)
}

// lotDateFromMetadata reads an explicit lot selector from posting metadata.
func lotDateFromMetadata(posting *ast.Posting) *ast.Date {
	value := posting.Meta("lot-date")
	if value == "" {
		return nil
	}
	date, err := ast.ParseDate(value)
	if err != nil {
		return nil
	}
	return date
}

func (l *Ledger) addDiagnostic(diags ...Diagnostic) {
	l.diagnostics = append(l.diagnostics, diags...)
}
