package ledger

import (
	"strings"

	"github.com/KushNee/zhang/ast"
)

// AccountType is the root type of an account.
type AccountType int

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeAssets
	AccountTypeLiabilities
	AccountTypeEquity
	AccountTypeIncome
	AccountTypeExpenses
)

// String returns the string representation of the account type.
func (t AccountType) String() string {
	switch t {
	case AccountTypeAssets:
		return "Assets"
	case AccountTypeLiabilities:
		return "Liabilities"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeIncome:
		return "Income"
	case AccountTypeExpenses:
		return "Expenses"
	default:
		return "Unknown"
	}
}

// ParseAccountType parses the account type from the account name.
func ParseAccountType(account ast.Account) AccountType {
	name := string(account)
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}

	switch name {
	case "Assets":
		return AccountTypeAssets
	case "Liabilities":
		return AccountTypeLiabilities
	case "Equity":
		return AccountTypeEquity
	case "Income":
		return AccountTypeIncome
	case "Expenses":
		return AccountTypeExpenses
	default:
		return AccountTypeUnknown
	}
}

// Account is the evaluated state of one ledger account: lifetime, commodity
// constraints, metadata, and the running inventory.
type Account struct {
	Name        ast.Account
	Type        AccountType
	OpenDate    *ast.Date
	CloseDate   *ast.Date
	Commodities []string // allowed commodities; empty means unrestricted
	Metadata    []*ast.Metadata
	Inventory   *Inventory
}

// IsOpen returns true if the account is open at the given date.
// Postings are allowed on the close date itself, but not after.
func (a *Account) IsOpen(date *ast.Date) bool {
	if a.OpenDate == nil {
		return false
	}
	if a.OpenDate.SortKey() > date.SortKey() {
		return false
	}
	if a.CloseDate != nil && date.SortKey() > a.CloseDate.SortKey() {
		return false
	}
	return true
}

// IsClosed returns true if the account has been closed.
func (a *Account) IsClosed() bool {
	return a.CloseDate != nil
}

// Allows reports whether the commodity may be posted to this account.
func (a *Account) Allows(commodity string) bool {
	if len(a.Commodities) == 0 {
		return true
	}
	for _, c := range a.Commodities {
		if c == commodity {
			return true
		}
	}
	return false
}
