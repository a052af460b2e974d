package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KushNee/zhang/ast"
)

// Diagnostic is the user-visible shape of every problem found while loading
// or evaluating a ledger. The parser's and loader's error types satisfy it
// too, so one list carries syntax, include, and bookkeeping problems alike.
type Diagnostic interface {
	error
	Kind() string
	Position() ast.Span
}

// UnknownAccountError reports a reference to an account never opened.
type UnknownAccountError struct {
	Pos     ast.Span
	Account ast.Account
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("%s: account %s is not opened", e.Pos.String(), e.Account)
}

func (e *UnknownAccountError) Kind() string       { return "UnknownAccount" }
func (e *UnknownAccountError) Position() ast.Span { return e.Pos }

// AccountClosedError reports a posting dated after the account's close.
type AccountClosedError struct {
	Pos     ast.Span
	Account ast.Account
	Closed  *ast.Date
}

func (e *AccountClosedError) Error() string {
	return fmt.Sprintf("%s: account %s was closed on %s", e.Pos.String(), e.Account, e.Closed)
}

func (e *AccountClosedError) Kind() string       { return "AccountClosed" }
func (e *AccountClosedError) Position() ast.Span { return e.Pos }

// DuplicateOpenError reports a second open of an already-open account.
type DuplicateOpenError struct {
	Pos     ast.Span
	Account ast.Account
}

func (e *DuplicateOpenError) Error() string {
	return fmt.Sprintf("%s: account %s is already opened", e.Pos.String(), e.Account)
}

func (e *DuplicateOpenError) Kind() string       { return "DuplicateOpen" }
func (e *DuplicateOpenError) Position() ast.Span { return e.Pos }

// CloseNonZeroAccountError reports closing an account that still holds a
// non-zero balance.
type CloseNonZeroAccountError struct {
	Pos     ast.Span
	Account ast.Account
}

func (e *CloseNonZeroAccountError) Error() string {
	return fmt.Sprintf("%s: account %s still has a balance at close", e.Pos.String(), e.Account)
}

func (e *CloseNonZeroAccountError) Kind() string       { return "CloseNonZeroAccount" }
func (e *CloseNonZeroAccountError) Position() ast.Span { return e.Pos }

// CommodityNotAllowedError reports a posting commodity outside the account's
// allowed set.
type CommodityNotAllowedError struct {
	Pos       ast.Span
	Account   ast.Account
	Commodity string
	Allowed   []string
}

func (e *CommodityNotAllowedError) Error() string {
	return fmt.Sprintf("%s: commodity %s is not allowed on %s (allowed: %s)",
		e.Pos.String(), e.Commodity, e.Account, strings.Join(e.Allowed, ", "))
}

func (e *CommodityNotAllowedError) Kind() string       { return "CommodityNotAllowed" }
func (e *CommodityNotAllowedError) Position() ast.Span { return e.Pos }

// TransactionUnbalancedError reports posting weights that do not net to zero.
type TransactionUnbalancedError struct {
	Pos       ast.Span
	Residuals map[string]string // commodity -> residual amount
}

func (e *TransactionUnbalancedError) Error() string {
	parts := make([]string, 0, len(e.Residuals))
	for _, commodity := range sortedKeys(e.Residuals) {
		parts = append(parts, fmt.Sprintf("%s %s", e.Residuals[commodity], commodity))
	}
	return fmt.Sprintf("%s: transaction does not balance, residual %s", e.Pos.String(), strings.Join(parts, ", "))
}

func (e *TransactionUnbalancedError) Kind() string       { return "TransactionUnbalanced" }
func (e *TransactionUnbalancedError) Position() ast.Span { return e.Pos }

// MultipleElisionsError reports more than one posting without an amount.
type MultipleElisionsError struct {
	Pos ast.Span
}

func (e *MultipleElisionsError) Error() string {
	return fmt.Sprintf("%s: more than one posting without an amount", e.Pos.String())
}

func (e *MultipleElisionsError) Kind() string       { return "MultipleElisions" }
func (e *MultipleElisionsError) Position() ast.Span { return e.Pos }

// UnresolvableElisionError reports an elided posting whose residual spans
// several commodities, so no unique amount exists.
type UnresolvableElisionError struct {
	Pos         ast.Span
	Commodities []string
}

func (e *UnresolvableElisionError) Error() string {
	return fmt.Sprintf("%s: cannot infer amount across commodities %s",
		e.Pos.String(), strings.Join(e.Commodities, ", "))
}

func (e *UnresolvableElisionError) Kind() string       { return "UnresolvableElision" }
func (e *UnresolvableElisionError) Position() ast.Span { return e.Pos }

// AssertionFailedError reports a balance assertion beyond tolerance.
type AssertionFailedError struct {
	Pos      ast.Span
	Account  ast.Account
	Expected string
	Actual   string
	Currency string
}

func (e *AssertionFailedError) Error() string {
	return fmt.Sprintf("%s: balance of %s is %s %s, expected %s %s",
		e.Pos.String(), e.Account, e.Actual, e.Currency, e.Expected, e.Currency)
}

func (e *AssertionFailedError) Kind() string       { return "AssertionFailed" }
func (e *AssertionFailedError) Position() ast.Span { return e.Pos }

// CostPriceMismatchError reports a posting carrying both a cost and a price
// that disagree beyond tolerance. The cost stays authoritative for the lot;
// the price is informational.
type CostPriceMismatchError struct {
	Pos   ast.Span
	Cost  string
	Price string
}

func (e *CostPriceMismatchError) Error() string {
	return fmt.Sprintf("%s: cost %s and price %s disagree", e.Pos.String(), e.Cost, e.Price)
}

func (e *CostPriceMismatchError) Kind() string       { return "CostPriceMismatch" }
func (e *CostPriceMismatchError) Position() ast.Span { return e.Pos }

// NoPriceRouteError reports a cross-commodity conversion with no path in the
// price graph.
type NoPriceRouteError struct {
	Pos  ast.Span
	From string
	To   string
}

func (e *NoPriceRouteError) Error() string {
	return fmt.Sprintf("%s: no price route from %s to %s", e.Pos.String(), e.From, e.To)
}

func (e *NoPriceRouteError) Kind() string       { return "NoPriceRoute" }
func (e *NoPriceRouteError) Position() ast.Span { return e.Pos }

// InvalidAmountError reports an amount literal that cannot be parsed as a
// decimal; surfaced as a parse-class diagnostic since the text is at fault.
type InvalidAmountError struct {
	Pos   ast.Span
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s: invalid amount %q", e.Pos.String(), e.Value)
}

func (e *InvalidAmountError) Kind() string       { return "ParseError" }
func (e *InvalidAmountError) Position() ast.Span { return e.Pos }

// InvalidOptionError reports a recognized option key with a malformed value.
type InvalidOptionError struct {
	Pos   ast.Span
	Key   string
	Value string
	Err   error
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("%s: invalid value %q for option %q: %v", e.Pos.String(), e.Value, e.Key, e.Err)
}

func (e *InvalidOptionError) Kind() string       { return "ParseError" }
func (e *InvalidOptionError) Position() ast.Span { return e.Pos }
func (e *InvalidOptionError) Unwrap() error      { return e.Err }

// genericDiagnostic adapts a plain error into the Diagnostic shape.
type genericDiagnostic struct {
	err error
}

func (g *genericDiagnostic) Error() string      { return g.err.Error() }
func (g *genericDiagnostic) Kind() string       { return "IoError" }
func (g *genericDiagnostic) Position() ast.Span { return ast.Span{} }
func (g *genericDiagnostic) Unwrap() error      { return g.err }

// AsDiagnostic wraps any error into a Diagnostic, keeping richer types as-is.
func AsDiagnostic(err error) Diagnostic {
	if d, ok := err.(Diagnostic); ok {
		return d
	}
	return &genericDiagnostic{err: err}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
