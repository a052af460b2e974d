package ast

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DatePrecision is how much of a calendar instant a date literal spelled out.
type DatePrecision uint8

const (
	PrecisionDay DatePrecision = iota
	PrecisionMinute
	PrecisionSecond
)

var dateLayouts = [...]struct {
	layout    string
	precision DatePrecision
}{
	{"2006-01-02 15:04:05", PrecisionSecond},
	{"2006-01-02 15:04", PrecisionMinute},
	{"2006-01-02", PrecisionDay},
}

// Date represents a calendar instant at day, minute, or second precision.
// Ordering is lexicographic on the normalized second-precision form; fields
// a literal omits default to zero.
type Date struct {
	time.Time
	Precision DatePrecision
}

// ParseDate parses a date literal in any of the three supported layouts.
func ParseDate(value string) (*Date, error) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, value); err == nil {
			return &Date{Time: t, Precision: l.precision}, nil
		}
	}
	return nil, fmt.Errorf("invalid date: %s", value)
}

// NewDate constructs a day-precision date.
func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Precision: PrecisionDay}
}

// NewDatetime constructs a second-precision date.
func NewDatetime(t time.Time) *Date {
	return &Date{Time: t, Precision: PrecisionSecond}
}

// SortKey returns the normalized second-precision form used for ordering.
func (d *Date) SortKey() string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02 15:04:05")
}

// String renders the date in the shortest layout that preserves its precision.
func (d *Date) String() string {
	switch d.Precision {
	case PrecisionSecond:
		return d.Format("2006-01-02 15:04:05")
	case PrecisionMinute:
		return d.Format("2006-01-02 15:04")
	default:
		return d.Format("2006-01-02")
	}
}

// IsZero returns true if the Date is nil or represents the zero time.
// Nil-safe so zero-value checks on optional dates don't panic.
func (d *Date) IsZero() bool {
	return d == nil || d.Time.IsZero()
}

// Amount represents a numerical value with its associated commodity symbol.
// The value is stored as a string to preserve the exact decimal scale from
// the input, avoiding floating-point precision issues.
type Amount struct {
	Value     string
	Commodity string
}

func (a *Amount) String() string {
	return a.Value + " " + a.Commodity
}

// Account represents a ledger account name consisting of at least two
// colon-separated segments. The first segment must be one of the five root
// types: Assets, Liabilities, Equity, Income, or Expenses.
//
// Example accounts:
//
//	Assets:US:BofA:Checking
//	Liabilities:CreditCard:CapitalOne
//	Income:US:Acme:Salary
//	Expenses:Home:Rent
type Account string

// ParseAccount validates an account literal.
func ParseAccount(value string) (Account, error) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("account must have at least two segments: %s", value)
	}

	switch parts[0] {
	case "Assets", "Liabilities", "Equity", "Income", "Expenses":
	default:
		return "", fmt.Errorf("unexpected account root %q", parts[0])
	}

	for i := 1; i < len(parts); i++ {
		if !isValidAccountSegment(parts[i]) {
			return "", fmt.Errorf("invalid account segment at position %d: %s", i, parts[i])
		}
	}

	return Account(value), nil
}

// Root returns the root type segment of the account.
func (a Account) Root() string {
	if i := strings.IndexByte(string(a), ':'); i >= 0 {
		return string(a)[:i]
	}
	return string(a)
}

// Segments returns the full ordered path of the account.
func (a Account) Segments() []string {
	return strings.Split(string(a), ":")
}

// accountSegmentRegex validates account segments (after the root).
var accountSegmentRegex = regexp.MustCompile(`^[\p{L}0-9][\p{L}0-9._-]*$`)

func isValidAccountSegment(segment string) bool {
	return len(segment) > 0 && accountSegmentRegex.MatchString(segment)
}

// Tag represents a hashtag starting with #, used to categorize transactions.
type Tag string

// Link represents a reference link starting with ^, used to connect related
// transactions together.
type Link string

// MetaValue is the value of a metadata line: a string or an account.
// Exactly one field is set.
type MetaValue struct {
	StringValue *string
	Account     *Account
}

// MetaString wraps a string into a MetaValue.
func MetaString(s string) *MetaValue { return &MetaValue{StringValue: &s} }

// MetaAccount wraps an account into a MetaValue.
func MetaAccount(a Account) *MetaValue { return &MetaValue{Account: &a} }

// IsAccount reports whether the value is an account reference.
func (m *MetaValue) IsAccount() bool { return m != nil && m.Account != nil }

func (m *MetaValue) String() string {
	switch {
	case m == nil:
		return ""
	case m.StringValue != nil:
		return *m.StringValue
	case m.Account != nil:
		return string(*m.Account)
	default:
		return ""
	}
}

// Metadata represents a key-value pair attached to a directive or posting
// via indented "key: value" lines. Pairs keep their source order.
type Metadata struct {
	Key   string
	Value *MetaValue
}
